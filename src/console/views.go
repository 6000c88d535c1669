package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/olekukonko/tablewriter"

	"storepilot/src/core/jobtrack"
	"storepilot/src/infrastructure/integrations/storeapi"
	"storepilot/src/log"
)

// RecentLister provides the recent stores list.
type RecentLister interface {
	RecentStores(ctx context.Context) ([]storeapi.RecentStore, error)
}

// StoreConsole renders store creation on a terminal.
type StoreConsole struct {
	out    io.Writer
	recent RecentLister
	line   *progressLine
}

func NewStoreConsole(out io.Writer, recent RecentLister) *StoreConsole {
	return &StoreConsole{out: out, recent: recent, line: &progressLine{out: out}}
}

func (v *StoreConsole) Notify(n jobtrack.Notification) {
	notify(v.out, n)
}

func (v *StoreConsole) SetBusy(busy bool) {
	if !busy {
		v.line.stop(false)
	}
}

func (v *StoreConsole) ShowProgress(percent int, phase string) {
	v.line.show(percent, phase)
}

func (v *StoreConsole) RenderResult(result json.RawMessage) {
	v.line.stop(true)

	var r struct {
		Concept struct {
			StoreName string `json:"store_name"`
		} `json:"concept"`
		StoreURL        string `json:"store_url"`
		ProductsCreated int    `json:"products_created"`
		Mode            string `json:"mode"`
	}
	if err := json.Unmarshal(result, &r); err != nil {
		log.Error(err, "Unreadable store result")
		fmt.Fprintln(v.out, string(result))
		return
	}

	table := tablewriter.NewWriter(v.out)
	table.Header("STORE", "VALUE")
	table.Append("Name", r.Concept.StoreName)
	table.Append("URL", r.StoreURL)
	table.Append("Products", fmt.Sprintf("%d", r.ProductsCreated))
	table.Append("Mode", r.Mode)
	if err := table.Render(); err != nil {
		log.Error(err, "Failed to render store result")
	}
}

func (v *StoreConsole) RefreshRecent(ctx context.Context) {
	if v.recent == nil {
		return
	}
	stores, err := v.recent.RecentStores(ctx)
	if err != nil {
		log.Error(err, "Failed to refresh recent stores")
		return
	}
	PrintRecentStores(v.out, stores)
}

// PrintRecentStores writes stores as an aligned table.
func PrintRecentStores(out io.Writer, stores []storeapi.RecentStore) {
	if len(stores) == 0 {
		fmt.Fprintln(out, "No stores created yet.")
		return
	}
	table := tablewriter.NewWriter(out)
	table.Header("NAME", "PRODUCTS", "MODE", "CREATED", "URL")
	for _, s := range stores {
		table.Append(s.StoreName, fmt.Sprintf("%d", s.ProductsCount), s.Mode, s.CreatedAt, s.StoreURL)
	}
	if err := table.Render(); err != nil {
		log.Error(err, "Failed to render recent stores")
	}
}

// EditConsole renders a product edit on a terminal. The editor counts as
// closed once the edited product has been reloaded.
type EditConsole struct {
	out  io.Writer
	line *progressLine

	closeOnce sync.Once
	closed    chan struct{}
}

func NewEditConsole(out io.Writer) *EditConsole {
	return &EditConsole{out: out, line: &progressLine{out: out}, closed: make(chan struct{})}
}

func (v *EditConsole) Notify(n jobtrack.Notification) {
	if n.Level != jobtrack.LevelSuccess {
		v.line.stop(false)
	}
	notify(v.out, n)
}

func (v *EditConsole) SetSubmitEnabled(enabled bool) {
	if enabled {
		v.line.stop(false)
	}
}

func (v *EditConsole) ShowProgress(percent int, phase string) {
	v.line.show(percent, phase)
}

func (v *EditConsole) CloseEditor() {
	v.line.stop(true)
}

func (v *EditConsole) ReloadProducts(_ context.Context, productID string) {
	if productID != "" {
		fmt.Fprintf(v.out, "Product %s reloaded.\n", productID)
	}
	v.closeOnce.Do(func() { close(v.closed) })
}

// Closed is closed after a successful edit has closed the editor.
func (v *EditConsole) Closed() <-chan struct{} {
	return v.closed
}
