package shell

import (
	"errors"

	"github.com/1broseidon/vaulttray/internal/platform"
)

// Reconcile repairs registry drift from missed host events: instance windows
// that were never registered are registered, and members the host no longer
// knows are evicted. Hidden members stay even when the host stops listing
// them.
func (c *Controller) Reconcile() (added, removed []platform.WindowID) {
	host := c.env.Host
	windows, err := host.InstanceWindows()
	if err != nil {
		c.env.warn("reconcile: failed to list instance windows", err)
		return nil, nil
	}
	for _, w := range windows {
		if c.reg.Contains(w) {
			continue
		}
		c.reg.Register(w)
		if c.reg.Contains(w) {
			added = append(added, w)
		}
	}
	for _, w := range c.reg.Windows() {
		if _, err := host.Describe(w); errors.Is(err, platform.ErrWindowGone) {
			c.reg.Evict(w)
			removed = append(removed, w)
		}
	}
	if len(added) > 0 || len(removed) > 0 {
		c.env.Logger.Info("registry drift repaired", "added", len(added), "removed", len(removed))
	}
	return added, removed
}
