package canvas

import (
	"strings"

	"github.com/google/uuid"
)

// Node IDs must be reconstructable from the entity they represent so that
// reconciliation matches "the same thing" across rebuilds regardless of
// enumeration order. Notes and files use their vault-relative path directly;
// folders carry a prefix so a folder node never collides with a same-named
// file node. User-authored nodes get a random ID once, at creation.

// folderIDPrefix distinguishes folder node IDs from file node IDs.
const folderIDPrefix = "folder:"

// legacyFramePrefix marks auto-generated grouping frames from version 1
// documents. Any frame with this prefix is migrated away on load.
const legacyFramePrefix = "group-"

// NoteID returns the stable node ID for a markdown or plain file at the
// given vault-relative path.
func NoteID(rel string) string { return rel }

// FolderID returns the stable node ID for a subdirectory.
func FolderID(rel string) string { return folderIDPrefix + rel }

// FolderPath extracts the vault-relative path from a folder node ID.
func FolderPath(id string) (string, bool) {
	return strings.CutPrefix(id, folderIDPrefix)
}

// NewUserNodeID returns a fresh random ID for a user-authored node.
// It is assigned once and never recomputed.
func NewUserNodeID() string { return uuid.NewString() }

// IsLegacyFrameID reports whether id belongs to a deprecated auto-generated
// frame from the version 1 layout scheme.
func IsLegacyFrameID(id string) bool { return strings.HasPrefix(id, legacyFramePrefix) }
