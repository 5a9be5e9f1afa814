// Package folders provides the folder taxonomy: folder CRUD, the default
// folder invariant, and delete-with-reassignment serialized against moves.
package folders

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/types"
)

// DefaultFolderName is the name given to the folder created by NewManager.
const DefaultFolderName = "All Candidates"

// palette is cycled through for folders created without a colour.
var palette = []string{"#4F46E5", "#059669", "#D97706", "#DC2626", "#7C3AED", "#0891B2", "#DB2777"}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Membership is the view of the candidate store the taxonomy needs.
type Membership interface {
	CountByFolder(folderID string) int
	CountsByFolder() map[string]int
	ReassignFolder(from, to string) int
}

// Reassigner moves every member of one folder into another. The caller
// holds the exclusive lock on from.
type Reassigner interface {
	ReassignAll(from, to string) int
}

// Manager owns the set of folders.
type Manager struct {
	mu      sync.RWMutex
	folders map[string]*types.Folder
	order   []string
	def     string

	// structMu serializes deletes and default-flag changes with each other.
	structMu sync.Mutex
	locks    *LockSet

	members    Membership
	reassigner Reassigner
	notifier   events.Notifier
	fold       cases.Caser
	now        func() time.Time
}

// DeleteResult reports what a delete did.
type DeleteResult struct {
	Folder     types.Folder `json:"folder"`
	Reassigned int          `json:"reassigned"`
	DefaultID  string       `json:"default_folder_id"`
}

// NewManager creates a taxonomy containing only the default folder.
func NewManager(members Membership, notifier events.Notifier) *Manager {
	if notifier == nil {
		notifier = events.Discard
	}
	m := &Manager{
		folders:  make(map[string]*types.Folder),
		locks:    NewLockSet(),
		members:  members,
		notifier: notifier,
		fold:     cases.Fold(),
		now:      time.Now,
	}

	def := &types.Folder{
		ID:        uuid.New().String(),
		Name:      DefaultFolderName,
		Color:     palette[0],
		IsDefault: true,
		CreatedAt: m.now().UTC(),
	}
	m.folders[def.ID] = def
	m.order = append(m.order, def.ID)
	m.def = def.ID
	return m
}

// SetReassigner routes delete-time reassignment through r instead of
// writing to the membership store directly.
func (m *Manager) SetReassigner(r Reassigner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reassigner = r
}

// Locks exposes the per-folder lock set shared with the assignment service.
func (m *Manager) Locks() *LockSet {
	return m.locks
}

// DefaultID returns the id of the default folder.
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// Exists reports whether a folder with id exists.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.folders[id]
	return ok
}

// Get returns a folder with its live member count.
func (m *Manager) Get(id string) (types.Folder, error) {
	m.mu.RLock()
	f, ok := m.folders[id]
	var out types.Folder
	if ok {
		out = *f
	}
	m.mu.RUnlock()

	if !ok {
		return types.Folder{}, &types.NotFoundError{Kind: "folder", ID: id}
	}
	out.Count = m.members.CountByFolder(id)
	return out, nil
}

// FindByName returns the folder whose name matches name ignoring case.
func (m *Manager) FindByName(name string) (types.Folder, bool) {
	m.mu.Lock()
	f := m.findByNameLocked(strings.TrimSpace(name), "")
	var out types.Folder
	if f != nil {
		out = *f
	}
	m.mu.Unlock()

	if f == nil {
		return types.Folder{}, false
	}
	out.Count = m.members.CountByFolder(out.ID)
	return out, true
}

// List returns every folder, default first then in creation order, with live counts.
func (m *Manager) List() []types.Folder {
	m.mu.RLock()
	out := make([]types.Folder, 0, len(m.order))
	out = append(out, *m.folders[m.def])
	for _, id := range m.order {
		if id == m.def {
			continue
		}
		out = append(out, *m.folders[id])
	}
	m.mu.RUnlock()

	counts := m.members.CountsByFolder()
	for i := range out {
		out[i].Count = counts[out[i].ID]
	}
	return out
}

// Create adds a new, non-default folder.
func (m *Manager) Create(name, description, color string) (types.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Folder{}, &types.ValidationError{Field: "name", Message: "folder name is required"}
	}
	color = strings.TrimSpace(color)
	if color != "" && !hexColor.MatchString(color) {
		return types.Folder{}, &types.ValidationError{Field: "color", Message: fmt.Sprintf("invalid colour %q, expected #RRGGBB", color)}
	}

	m.mu.Lock()
	if dup := m.findByNameLocked(name, ""); dup != nil {
		m.mu.Unlock()
		return types.Folder{}, &types.ValidationError{Field: "name", Message: fmt.Sprintf("folder %q already exists", dup.Name)}
	}
	if color == "" {
		color = palette[len(m.order)%len(palette)]
	}
	f := &types.Folder{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Color:       strings.ToUpper(color),
		CreatedAt:   m.now().UTC(),
	}
	m.folders[f.ID] = f
	m.order = append(m.order, f.ID)
	out := *f
	m.mu.Unlock()

	m.notifier.Notify(events.Event{Type: events.FolderCreated, FolderID: out.ID, FolderName: out.Name})
	return out, nil
}

// Edit changes the given fields of a folder. Setting IsDefault on another
// folder moves the default flag; unsetting it on the default folder fails.
func (m *Manager) Edit(id string, edit types.FolderEdit) (types.Folder, error) {
	if edit.IsDefault != nil {
		m.structMu.Lock()
		defer m.structMu.Unlock()
	}

	m.mu.Lock()
	f, ok := m.folders[id]
	if !ok {
		m.mu.Unlock()
		return types.Folder{}, &types.NotFoundError{Kind: "folder", ID: id}
	}

	next := *f
	if edit.Name != nil {
		name := strings.TrimSpace(*edit.Name)
		if name == "" {
			m.mu.Unlock()
			return types.Folder{}, &types.ValidationError{Field: "name", Message: "folder name is required"}
		}
		if dup := m.findByNameLocked(name, id); dup != nil {
			m.mu.Unlock()
			return types.Folder{}, &types.ValidationError{Field: "name", Message: fmt.Sprintf("folder %q already exists", dup.Name)}
		}
		next.Name = name
	}
	if edit.Description != nil {
		next.Description = strings.TrimSpace(*edit.Description)
	}
	if edit.Color != nil {
		color := strings.TrimSpace(*edit.Color)
		if !hexColor.MatchString(color) {
			m.mu.Unlock()
			return types.Folder{}, &types.ValidationError{Field: "color", Message: fmt.Sprintf("invalid colour %q, expected #RRGGBB", color)}
		}
		next.Color = strings.ToUpper(color)
	}
	if edit.IsDefault != nil {
		switch {
		case f.IsDefault && !*edit.IsDefault:
			m.mu.Unlock()
			return types.Folder{}, &types.ValidationError{Field: "is_default", Message: "the default folder cannot be unset; mark another folder as default instead"}
		case !f.IsDefault && *edit.IsDefault:
			m.folders[m.def].IsDefault = false
			m.def = id
			next.IsDefault = true
		}
	}

	*f = next
	out := *f
	m.mu.Unlock()

	out.Count = m.members.CountByFolder(id)
	m.notifier.Notify(events.Event{Type: events.FolderUpdated, FolderID: out.ID, FolderName: out.Name})
	return out, nil
}

// Delete removes a non-default folder after moving its members to the
// default folder. The folder's exclusive lock is held for the whole
// operation, so no in-flight move can target it.
func (m *Manager) Delete(id string) (DeleteResult, error) {
	m.structMu.Lock()
	defer m.structMu.Unlock()

	if err := m.checkDeletable(id); err != nil {
		return DeleteResult{}, err
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	// Re-check now that no move can be mid-flight into this folder.
	if err := m.checkDeletable(id); err != nil {
		return DeleteResult{}, err
	}

	m.mu.RLock()
	defID := m.def
	reassigner := m.reassigner
	m.mu.RUnlock()

	var moved int
	if reassigner != nil {
		moved = reassigner.ReassignAll(id, defID)
	} else {
		moved = m.members.ReassignFolder(id, defID)
	}

	m.mu.Lock()
	removed := *m.folders[id]
	delete(m.folders, id)
	for i, fid := range m.order {
		if fid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.notifier.Notify(events.Event{Type: events.FolderDeleted, FolderID: removed.ID, FolderName: removed.Name, Count: moved})
	return DeleteResult{Folder: removed, Reassigned: moved, DefaultID: defID}, nil
}

func (m *Manager) checkDeletable(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.folders[id]
	if !ok {
		return &types.NotFoundError{Kind: "folder", ID: id}
	}
	if f.IsDefault {
		return &types.ProtectedEntityError{Kind: "folder", ID: id, Reason: "the default folder cannot be deleted"}
	}
	return nil
}

// Restore replaces the taxonomy with previously saved folders. Exactly one
// of them must be the default.
func (m *Manager) Restore(saved []types.Folder) error {
	def := ""
	seen := make(map[string]bool, len(saved))
	for _, f := range saved {
		if f.ID == "" || strings.TrimSpace(f.Name) == "" {
			return &types.ValidationError{Field: "folders", Message: "restored folders need an id and a name"}
		}
		if seen[f.ID] {
			return &types.ValidationError{Field: "folders", Message: "duplicate folder id " + f.ID}
		}
		seen[f.ID] = true
		if f.IsDefault {
			if def != "" {
				return &types.ValidationError{Field: "folders", Message: "more than one default folder"}
			}
			def = f.ID
		}
	}
	if def == "" {
		return &types.ValidationError{Field: "folders", Message: "no default folder"}
	}

	m.structMu.Lock()
	defer m.structMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.folders = make(map[string]*types.Folder, len(saved))
	m.order = m.order[:0]
	for _, f := range saved {
		f := f
		f.Count = 0
		m.folders[f.ID] = &f
		m.order = append(m.order, f.ID)
	}
	m.def = def
	return nil
}

// CheckInvariants verifies that exactly one folder is the default and that
// every candidate belongs to an existing folder.
func (m *Manager) CheckInvariants() error {
	m.mu.RLock()
	defaults := 0
	known := make(map[string]bool, len(m.folders))
	for id, f := range m.folders {
		known[id] = true
		if f.IsDefault {
			defaults++
		}
	}
	m.mu.RUnlock()

	if defaults != 1 {
		return fmt.Errorf("expected exactly one default folder, found %d", defaults)
	}
	for folderID, n := range m.members.CountsByFolder() {
		if !known[folderID] {
			return fmt.Errorf("%d candidates reference missing folder %s", n, folderID)
		}
	}
	return nil
}

func (m *Manager) findByNameLocked(name, exceptID string) *types.Folder {
	key := m.fold.String(name)
	for id, f := range m.folders {
		if id == exceptID {
			continue
		}
		if m.fold.String(f.Name) == key {
			return f
		}
	}
	return nil
}
