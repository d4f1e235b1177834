package intercept

import (
	"maps"
	"sync"

	"github.com/etnz/gfsync/app"
)

// Notice is a message displayed to the user.
type Notice struct {
	Level   string `json:"level"` // "success" or "error"
	Message string `json:"message"`
}

// Views is an app.UI keeping the last rendering of each target, and the
// notices not yet delivered.
type Views struct {
	mu      sync.Mutex
	views   map[app.Target]string
	notices []Notice
}

// NewViews returns empty views.
func NewViews() *Views {
	return &Views{views: make(map[app.Target]string)}
}

// Render implements app.UI.
func (v *Views) Render(target app.Target, markdown string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views[target] = markdown
}

// Success implements app.UI.
func (v *Views) Success(msg string) { v.notify("success", msg) }

// Error implements app.UI.
func (v *Views) Error(msg string) { v.notify("error", msg) }

func (v *Views) notify(level, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, Notice{Level: level, Message: msg})
}

// Get returns the markdown of target.
func (v *Views) Get(target app.Target) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.views[target]
}

// All returns a copy of every rendered target.
func (v *Views) All() map[app.Target]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return maps.Clone(v.views)
}

// Drain returns the pending notices and forgets them.
func (v *Views) Drain() []Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	notices := v.notices
	v.notices = nil
	return notices
}
