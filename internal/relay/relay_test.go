package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/storage"
)

type stubClient struct {
	api.Client
	mu    sync.Mutex
	notes []models.Notification
	opps  []models.Opportunity
	err   error

	status models.MarketStatus
	gets   int
}

func (c *stubClient) ListNotifications(ctx context.Context, userID string) (*models.NotificationList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return &models.NotificationList{Notifications: append([]models.Notification(nil), c.notes...)}, nil
}

func (c *stubClient) ListOpportunities(ctx context.Context, q api.OpportunityQuery) ([]models.Opportunity, error) {
	return c.opps, nil
}

func (c *stubClient) GetMarketStatus(ctx context.Context) (*models.MarketStatusState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	status := c.status
	if status == "" {
		status = models.MarketYellow
	}
	return &models.MarketStatusState{Status: status, Note: "Choppy"}, nil
}

func (c *stubClient) setNotes(notes []models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = notes
}

type fakeNotifier struct {
	batches    [][]models.Notification
	errors     []error
	recoveries []int
	sendErr    error
}

func (f *fakeNotifier) Send(notes []models.Notification) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.batches = append(f.batches, notes)
	return nil
}

func (f *fakeNotifier) SendError(err error) error {
	f.errors = append(f.errors, err)
	return nil
}

func (f *fakeNotifier) SendRecovery(failures int) error {
	f.recoveries = append(f.recoveries, failures)
	return nil
}

func newTestLedger(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(100, ":memory:")
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testNotes() []models.Notification {
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return []models.Notification{
		{ID: "n-3", Severity: models.SeverityCritical, Ticker: "GSI", Message: "Stop loss hit", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "n-1", Severity: models.SeverityWarning, Ticker: "KUYA", Message: "Thesis drift", CreatedAt: base},
		{ID: "n-2", Severity: models.SeverityInfo, Message: "Weekly digest ready", CreatedAt: base.Add(time.Hour)},
		{ID: "n-4", Severity: models.SeverityCritical, Read: true, Message: "Already seen", CreatedAt: base},
	}
}

func TestPollRelaysOnceOldestFirst(t *testing.T) {
	client := &stubClient{notes: testNotes()}
	notifier := &fakeNotifier{}
	r := New(client, newTestLedger(t), notifier, Config{MinSeverity: models.SeverityWarning})

	sent, err := r.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	got := notifier.batches[0]
	if got[0].ID != "n-1" || got[1].ID != "n-3" {
		t.Errorf("unexpected order %s, %s", got[0].ID, got[1].ID)
	}

	sent, err = r.Poll(context.Background())
	if err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if sent != 0 || len(notifier.batches) != 1 {
		t.Errorf("second poll relayed %d notifications", sent)
	}
}

func TestPollBatches(t *testing.T) {
	var notes []models.Notification
	for i := 0; i < 5; i++ {
		notes = append(notes, models.Notification{
			ID:        string(rune('a' + i)),
			Severity:  models.SeverityCritical,
			CreatedAt: time.Unix(int64(i), 0),
		})
	}
	notifier := &fakeNotifier{}
	r := New(&stubClient{notes: notes}, newTestLedger(t), notifier, Config{MaxBatch: 2})

	sent, err := r.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if sent != 5 || len(notifier.batches) != 3 {
		t.Errorf("sent %d in %d batches, want 5 in 3", sent, len(notifier.batches))
	}
}

func TestPollSendFailureLeavesLedgerUntouched(t *testing.T) {
	ledger := newTestLedger(t)
	notifier := &fakeNotifier{sendErr: errors.New("telegram down")}
	r := New(&stubClient{notes: testNotes()}, ledger, notifier, Config{})

	if _, err := r.Poll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if n, _ := ledger.Count(); n != 0 {
		t.Errorf("ledger has %d entries after failed send", n)
	}

	notifier.sendErr = nil
	sent, err := r.Poll(context.Background())
	if err != nil || sent != 2 {
		t.Errorf("retry sent %d, err %v", sent, err)
	}
}

func TestPollWithoutNotifierDoesNotRecord(t *testing.T) {
	ledger := newTestLedger(t)
	r := New(&stubClient{notes: testNotes()}, ledger, nil, Config{})

	sent, err := r.Poll(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("Poll = %d, %v", sent, err)
	}
	if n, _ := ledger.Count(); n != 0 {
		t.Errorf("ledger has %d entries", n)
	}
}

func TestPollListFailure(t *testing.T) {
	r := New(&stubClient{err: &api.FetchError{Op: "list notifications", StatusCode: 503}}, newTestLedger(t), &fakeNotifier{}, Config{})
	if _, err := r.Poll(context.Background()); !api.IsFetchError(err) {
		t.Errorf("expected wrapped FetchError, got %v", err)
	}
}

func TestPollBeyondLedgerCapacityRelaysOnce(t *testing.T) {
	var notes []models.Notification
	for i := 0; i < 150; i++ {
		notes = append(notes, models.Notification{
			ID:        fmt.Sprintf("n-%03d", i),
			Severity:  models.SeverityWarning,
			Message:   "Thesis drift",
			CreatedAt: time.Unix(int64(i), 0),
		})
	}
	client := &stubClient{notes: notes}
	ledger := newTestLedger(t)
	notifier := &fakeNotifier{}
	r := New(client, ledger, notifier, Config{})
	ctx := context.Background()

	if sent, err := r.Poll(ctx); err != nil || sent != 150 {
		t.Fatalf("first Poll = %d, %v; want 150", sent, err)
	}
	if sent, err := r.Poll(ctx); err != nil || sent != 0 {
		t.Fatalf("second Poll = %d, %v; want 0", sent, err)
	}
	if n, _ := ledger.Count(); n != 150 {
		t.Errorf("ledger has %d entries while all 150 are listed", n)
	}

	read := make([]models.Notification, len(notes))
	for i, n := range notes {
		n.Read = true
		read[i] = n
	}
	client.setNotes(read)
	if sent, err := r.Poll(ctx); err != nil || sent != 0 {
		t.Fatalf("third Poll = %d, %v; want 0", sent, err)
	}
	if n, _ := ledger.Count(); n != 100 {
		t.Errorf("ledger has %d entries after the listing cleared, want 100", n)
	}
}

func TestHooksReportFirstFailureAndRecovery(t *testing.T) {
	notifier := &fakeNotifier{}
	hooks := New(&stubClient{}, newTestLedger(t), notifier, Config{}).Hooks()

	boom := errors.New("boom")
	hooks.OnFailure("relay", boom, 1)
	hooks.OnFailure("relay", boom, 2)
	hooks.OnFailure("relay", boom, 3)
	hooks.OnRecovery("relay", 3)

	if len(notifier.errors) != 1 {
		t.Errorf("SendError called %d times, want 1", len(notifier.errors))
	}
	if len(notifier.recoveries) != 1 || notifier.recoveries[0] != 3 {
		t.Errorf("recoveries = %v, want [3]", notifier.recoveries)
	}
}

func TestCommands(t *testing.T) {
	client := &stubClient{
		notes: testNotes(),
		opps: []models.Opportunity{
			{Ticker: "LOW", BuyConfidence: 50},
			{Ticker: "GSI", BuyConfidence: 74},
			{Ticker: "KUYA", BuyConfidence: 82.3},
		},
	}
	ledger := newTestLedger(t)
	r := New(client, ledger, &fakeNotifier{}, Config{})
	if _, err := r.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	cmds := NewCommands(client, ledger, "family", 0, 0)
	ctx := context.Background()

	picks, err := cmds.TopPicks(ctx)
	if err != nil {
		t.Fatalf("TopPicks: %v", err)
	}
	if len(picks) != 2 || picks[0].Ticker != "KUYA" {
		t.Errorf("unexpected picks %+v", picks)
	}

	state, err := cmds.MarketStatus(ctx)
	if err != nil || state.Status != models.MarketYellow {
		t.Errorf("MarketStatus = %+v, %v", state, err)
	}

	recent, err := cmds.RecentRelayed(5)
	if err != nil {
		t.Fatalf("RecentRelayed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d recent, want 2", len(recent))
	}
	if recent[0].ID != "n-3" {
		t.Errorf("most recent relayed = %s, want n-3", recent[0].ID)
	}
}

func TestCommandsMarketStatusFollowsBackend(t *testing.T) {
	client := &stubClient{status: models.MarketGreen}
	cmds := NewCommands(client, newTestLedger(t), "family", 0, 0)
	ctx := context.Background()

	first, err := cmds.MarketStatus(ctx)
	if err != nil || first.Status != models.MarketGreen {
		t.Fatalf("first MarketStatus = %+v, %v", first, err)
	}

	client.mu.Lock()
	client.status = models.MarketRed
	client.mu.Unlock()

	second, err := cmds.MarketStatus(ctx)
	if err != nil || second.Status != models.MarketRed {
		t.Errorf("second MarketStatus = %+v, %v; want RED", second, err)
	}
	if client.gets != 2 {
		t.Errorf("GetMarketStatus calls = %d, want 2", client.gets)
	}
}
