package cli

import (
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/spf13/cobra"
)

const defaultFocusInterval = 30 * time.Second

func (c commands) badgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badge",
		Short: "Header cart badge",
	}
	cmd.AddCommand(c.badgeWatchCmd())
	return cmd
}

// badgeWatchCmd keeps the header state on screen until interrupted. A
// ticker stands in for window focus.
func (c commands) badgeWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the cart badge and login state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("focus-interval") {
				interval = c.deps.FocusInterval
			}
			if interval <= 0 {
				interval = defaultFocusInterval
			}
			ctx := cmd.Context()
			v := newView(cmd.OutOrStdout())

			var mu sync.Mutex
			badge, presence := c.deps.Header(
				func(s service.BadgeState) {
					mu.Lock()
					defer mu.Unlock()
					v.badge(s)
				},
				func(loggedIn bool) {
					mu.Lock()
					defer mu.Unlock()
					v.presence(loggedIn)
				},
			)

			var wg sync.WaitGroup
			if c.deps.Watcher != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					c.deps.Watcher.Run(ctx)
				}()
			}
			defer wg.Wait()

			presence.Mount(ctx)
			defer presence.Unmount()
			badge.Mount(ctx)
			defer badge.Unmount()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					c.deps.Signals.Publish(domain.SignalFocus)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "focus-interval", 0,
		"how often to resync as on window focus, badge.focus_interval when unset")
	return cmd
}
