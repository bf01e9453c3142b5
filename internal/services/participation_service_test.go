package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"gorm.io/gorm"
)

// stubDispatcher records fan-out calls without touching any CRM
type stubDispatcher struct {
	mu    sync.Mutex
	calls []string
}

func (d *stubDispatcher) DispatchParticipation(p *models.Participation, _ *models.Campaign) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, p.ID)
}

func newTestParticipationService(db *gorm.DB, dispatcher SyncDispatcher) *ParticipationService {
	return NewParticipationService(
		repository.NewParticipationRepository(db),
		repository.NewCampaignRepository(db),
		dispatcher,
	)
}

func TestRecordDefaultsToPending(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestParticipationService(db, &stubDispatcher{})

	p, err := svc.Record(campaign, &models.RecordParticipationRequest{
		Email: "a@x.com",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if p.ID == "" || p.AttemptID == "" {
		t.Fatalf("expected identifiers to be assigned, got id=%q attempt=%q", p.ID, p.AttemptID)
	}
	if p.Result != models.ResultPending {
		t.Fatalf("expected result %q, got %q", models.ResultPending, p.Result)
	}

	var reloaded models.Campaign
	if err := db.First(&reloaded, "id = ?", campaign.ID).Error; err != nil {
		t.Fatalf("failed to reload campaign: %v", err)
	}
	if reloaded.ParticipationsCount != 1 {
		t.Fatalf("expected participations counter 1, got %d", reloaded.ParticipationsCount)
	}
	if reloaded.CompletionsCount != 0 {
		t.Fatalf("pending participation must not bump completions, got %d", reloaded.CompletionsCount)
	}
}

func TestRecordWithTerminalResult(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestParticipationService(db, &stubDispatcher{})

	p, err := svc.Record(campaign, &models.RecordParticipationRequest{
		Email:      "a@x.com",
		Result:     models.ResultWin,
		PrizeLabel: "10% off",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if p.Result != models.ResultWin || p.PrizeLabel != "10% off" {
		t.Fatalf("unexpected participation state: result=%q prize=%q", p.Result, p.PrizeLabel)
	}

	var reloaded models.Campaign
	if err := db.First(&reloaded, "id = ?", campaign.ID).Error; err != nil {
		t.Fatalf("failed to reload campaign: %v", err)
	}
	if reloaded.CompletionsCount != 1 {
		t.Fatalf("expected completions counter 1, got %d", reloaded.CompletionsCount)
	}
}

func TestRecordDispatchesToSync(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	dispatcher := &stubDispatcher{}
	svc := newTestParticipationService(db, dispatcher)

	p, err := svc.Record(campaign, &models.RecordParticipationRequest{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.calls) != 1 || dispatcher.calls[0] != p.ID {
		t.Fatalf("expected one dispatch for %s, got %v", p.ID, dispatcher.calls)
	}
}

func TestUpdateResultTransitionsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestParticipationService(db, &stubDispatcher{})

	p, err := svc.Record(campaign, &models.RecordParticipationRequest{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	updated, err := svc.UpdateResult(&models.UpdateResultRequest{
		AttemptID:  p.AttemptID,
		Result:     models.ResultWin,
		PrizeLabel: "Free coffee",
	})
	if err != nil {
		t.Fatalf("UpdateResult returned error: %v", err)
	}
	if updated.Result != models.ResultWin || updated.PrizeLabel != "Free coffee" {
		t.Fatalf("unexpected state after update: result=%q prize=%q", updated.Result, updated.PrizeLabel)
	}

	// The second transition must be refused and leave the first result intact
	_, err = svc.UpdateResult(&models.UpdateResultRequest{
		AttemptID: p.AttemptID,
		Result:    models.ResultLose,
	})
	if !errors.Is(err, ErrResultAlreadySet) {
		t.Fatalf("expected ErrResultAlreadySet, got %v", err)
	}

	var stored models.Participation
	if err := db.First(&stored, "attempt_id = ?", p.AttemptID).Error; err != nil {
		t.Fatalf("failed to reload participation: %v", err)
	}
	if stored.Result != models.ResultWin {
		t.Fatalf("result must stay %q after refused transition, got %q", models.ResultWin, stored.Result)
	}

	var reloaded models.Campaign
	if err := db.First(&reloaded, "id = ?", campaign.ID).Error; err != nil {
		t.Fatalf("failed to reload campaign: %v", err)
	}
	if reloaded.CompletionsCount != 1 {
		t.Fatalf("refused transition must not bump completions, got %d", reloaded.CompletionsCount)
	}
}

func TestUpdateResultUnknownAttempt(t *testing.T) {
	db := setupTestDB(t)
	createTestCampaign(t, db)
	svc := newTestParticipationService(db, &stubDispatcher{})

	_, err := svc.UpdateResult(&models.UpdateResultRequest{
		AttemptID: "00000000-0000-0000-0000-000000000000",
		Result:    models.ResultWin,
	})
	if err == nil {
		t.Fatal("expected an error for an unknown attempt id")
	}
	if errors.Is(err, ErrResultAlreadySet) {
		t.Fatal("unknown attempt must not be reported as already set")
	}
}

func TestGetByCampaignPaginates(t *testing.T) {
	db := setupTestDB(t)
	campaign := createTestCampaign(t, db)
	svc := newTestParticipationService(db, &stubDispatcher{})

	for i := 0; i < 5; i++ {
		if _, err := svc.Record(campaign, &models.RecordParticipationRequest{}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	page, total, err := svc.GetByCampaign(campaign.ID, 0, 2)
	if err != nil {
		t.Fatalf("GetByCampaign returned error: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
}
