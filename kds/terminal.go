package kds

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/yeremiapane/order-platform/utils"
)

// TerminalBell rings the terminal bell as the new order alert.
type TerminalBell struct {
	Out io.Writer
}

func (b TerminalBell) Play() error {
	_, err := io.WriteString(b.Out, "\a")
	return err
}

// TerminalRenderer draws the display as a plain text table.
type TerminalRenderer struct {
	Out io.Writer
	mu  sync.Mutex
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (r *TerminalRenderer) Render(view View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "\n== Kitchen %s  %s  [%s]  auto:%s sound:%s flash:%s\n",
		view.RestaurantID, view.Now.Local().Format("15:04"), view.State,
		onOff(view.AutoRefresh), onOff(view.SoundOn), onOff(view.FlashOn))

	if view.State == StateDisconnected {
		b.WriteString("   reconnecting...\n")
	}
	if view.Flash {
		b.WriteString(">>>>> NEW ORDER <<<<<\n")
	}
	if view.Notice != nil {
		fmt.Fprintf(&b, "!! %s (dismiss to clear)\n", view.Notice.Text)
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tITEMS\tTOTAL\tELAPSED\tDUE\tPRIORITY")
	for _, order := range view.Orders {
		var items []string
		for _, item := range order.Items {
			line := fmt.Sprintf("%dx %s", item.Quantity, item.Name)
			if len(item.Modifications) > 0 {
				line += " (" + strings.Join(item.Modifications, ", ") + ")"
			}
			items = append(items, line)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dm\t%s\t%s\n",
			shortID(order.ID), order.Status, strings.Join(items, "; "),
			utils.FormatPrice(order.TotalPrice), order.ElapsedMinutes,
			order.EstimatedCompletionTime.Local().Format("15:04"), order.PriorityBucket)
	}
	tw.Flush()

	io.WriteString(r.Out, b.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
