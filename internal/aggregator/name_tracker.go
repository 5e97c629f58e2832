package aggregator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// MaxExposedNameLength is the longest tool name accepted by the reasoning
// backend for function tools.
const MaxExposedNameLength = 64

// toolRef identifies a tool on one connected transport.
type toolRef struct {
	serverName   string
	originalName string
}

// NameTracker maps server-prefixed, backend-safe tool names to the transport
// and tool they came from.
type NameTracker struct {
	// Map of exposed name -> (server, original name)
	nameMapping map[string]toolRef
	// Map of server/original -> exposed name, so repeated lookups are stable
	exposed map[toolRef]string
	mu      sync.RWMutex
}

// NewNameTracker creates a new name tracker
func NewNameTracker() *NameTracker {
	return &NameTracker{
		nameMapping: make(map[string]toolRef),
		exposed:     make(map[toolRef]string),
	}
}

// GetExposedToolName returns the name under which serverName's toolName is
// offered to the reasoning backend. The name is "<server>_<tool>" reduced to
// [a-zA-Z0-9_-] and at most MaxExposedNameLength characters. Distinct tools
// that reduce to the same name get a numeric suffix.
func (nt *NameTracker) GetExposedToolName(serverName, toolName string) string {
	ref := toolRef{serverName: serverName, originalName: toolName}

	nt.mu.Lock()
	defer nt.mu.Unlock()

	if name, ok := nt.exposed[ref]; ok {
		return name
	}

	base := shortenName(sanitizeName(serverName + "_" + toolName))
	name := base
	for i := 2; ; i++ {
		if _, taken := nt.nameMapping[name]; !taken {
			break
		}
		suffix := fmt.Sprintf("_%d", i)
		name = truncate(base, MaxExposedNameLength-len(suffix)) + suffix
	}

	nt.nameMapping[name] = ref
	nt.exposed[ref] = name
	return name
}

// ResolveName resolves an exposed name to server and original name
func (nt *NameTracker) ResolveName(exposedName string) (serverName, originalName string, err error) {
	nt.mu.RLock()
	defer nt.mu.RUnlock()

	mapping, exists := nt.nameMapping[exposedName]
	if !exists {
		return "", "", fmt.Errorf("unknown tool: %s", exposedName)
	}

	return mapping.serverName, mapping.originalName, nil
}

// sanitizeName replaces every character outside [a-zA-Z0-9_-] with '_'.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// shortenName keeps names within MaxExposedNameLength, replacing the tail of
// long names with a hash of the full name so they stay distinct.
func shortenName(name string) string {
	if len(name) <= MaxExposedNameLength {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	hash := hex.EncodeToString(sum[:4])
	return truncate(name, MaxExposedNameLength-len(hash)-1) + "_" + hash
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
