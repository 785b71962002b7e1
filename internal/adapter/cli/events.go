package cli

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/spf13/cobra"
)

const analyticsOffMsg = "Search analytics is not configured"

func (c commands) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Search analytics",
	}
	cmd.AddCommand(c.eventsTailCmd())
	return cmd
}

func (c commands) eventsTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Print search events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd.OutOrStdout())
			if c.deps.Tail == nil {
				v.notice(noticeWarning, analyticsOffMsg)
				return nil
			}

			tailer, err := c.deps.Tail(cmd.Context())
			if err != nil {
				v.report(err)
				return nil
			}
			defer tailer.Close()

			tailer.Run(cmd.Context(), &eventPrinter{v: v})
			return nil
		},
	}
}

type eventPrinter struct {
	mu sync.Mutex
	v  *view
}

func (p *eventPrinter) HandleSearchEvents(_ context.Context, es []domain.SearchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range es {
		p.v.searchEvent(e)
	}
	return nil
}
