// Package coupons provides the HTTP handlers and business logic for the
// staking ledger: creating, settling, editing, and deleting coupons,
// recording deposits and withdrawals, and serving status snapshots and
// stake recommendations.
//
// All monetary values use shopspring/decimal — never float64 for money.
package coupons

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/ledger"
	"github.com/recoup/coupon-engine/internal/metrics"
	"github.com/recoup/coupon-engine/internal/model"
	"github.com/recoup/coupon-engine/internal/stake"
	"github.com/recoup/coupon-engine/internal/store"
)

// Service handles ledger operations. A mutex serializes mutations
// (single-instance): every write is load → mutate → recompute → save, and
// interleaving two of those would lose updates.
type Service struct {
	store   store.Store
	targets store.TargetStore // optional profit-target persistence
	wsHub   *WSHub            // optional WebSocket hub for ledger events
	mu      sync.Mutex
	target  decimal.Decimal // current profit target, guarded by mu
}

// NewService creates a new coupon service. targets may be nil when the
// backing store cannot persist the profit target; hub may be nil when
// WebSocket broadcasting is not needed. profitTarget must be positive —
// non-positive values fall back to 100.
func NewService(st store.Store, targets store.TargetStore, hub *WSHub, profitTarget decimal.Decimal) *Service {
	if !profitTarget.IsPositive() {
		profitTarget = decimal.NewFromInt(100)
	}
	return &Service{
		store:   st,
		targets: targets,
		wsHub:   hub,
		target:  profitTarget,
	}
}

// RestoreTarget swaps in the persisted profit target when one exists.
// Called once at startup, before the server accepts requests.
func (s *Service) RestoreTarget(ctx context.Context) error {
	if s.targets == nil {
		return nil
	}
	t, ok, err := s.targets.LoadTarget(ctx)
	if err != nil {
		return err
	}
	if ok && t.IsPositive() {
		s.mu.Lock()
		s.target = t.Round(2)
		s.mu.Unlock()
		slog.Info("profit target restored", "target", t.String())
	}
	return nil
}

func (s *Service) profitTarget() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// loadLedger fetches the sequence and rebuilds derived columns. Stored
// derived values are cache, never trusted.
func (s *Service) loadLedger(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	ledger.Recompute(coupons)
	return coupons, nil
}

func (s *Service) saveLedger(ctx context.Context, coupons []model.Coupon) error {
	ledger.Recompute(coupons)
	return s.store.Save(ctx, coupons)
}

// --- Request/Response types ---

// CreateCouponRequest is the JSON body for POST /api/v1/coupons.
type CreateCouponRequest struct {
	Label   string          `json:"label"`
	Stake   decimal.Decimal `json:"stake"`
	Odds    decimal.Decimal `json:"odds"`
	Deposit decimal.Decimal `json:"deposit"` // optional capital injected with the wager
}

// EditCouponRequest is the JSON body for PUT /api/v1/coupons/{couponID}.
type EditCouponRequest struct {
	Label string          `json:"label"`
	Stake decimal.Decimal `json:"stake"`
	Odds  decimal.Decimal `json:"odds"`
}

// SettleRequest is the JSON body for POST /api/v1/coupons/{couponID}/settle.
type SettleRequest struct {
	Result string `json:"result"` // "won" or "lost"
}

// AmountRequest is the JSON body for deposits and withdrawals.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// DeleteRequest is the JSON body for bulk deletion.
type DeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// TargetPayload carries the profit target on GET/PUT /api/v1/target.
type TargetPayload struct {
	ProfitTarget decimal.Decimal `json:"profit_target"`
}

// CouponResponse wraps a coupon with the over-budget advisory. A positive
// shortfall never blocks the operation — it is surfaced for the caller to
// decide whether to top up.
type CouponResponse struct {
	Coupon    model.Coupon    `json:"coupon"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// StatusResponse is the ledger snapshot plus derived game state.
type StatusResponse struct {
	model.Snapshot
	ProfitTarget decimal.Decimal `json:"profit_target"`
	Phase        ledger.Phase    `json:"phase"`
	GoalReached  bool            `json:"goal_reached"`
	Pending      int             `json:"pending"`
}

// RecommendResponse is returned from GET /api/v1/recommend.
type RecommendResponse struct {
	Odds          decimal.Decimal `json:"odds"`
	Recommended   decimal.Decimal `json:"recommended"`
	Shortfall     decimal.Decimal `json:"shortfall"`
	Budget        decimal.Decimal `json:"budget"`
	Target        decimal.Decimal `json:"target"`
	NoStakeNeeded bool            `json:"no_stake_needed"`
}

// --- HTTP Handlers ---

// CreateCoupon handles POST /api/v1/coupons
// Appends a PENDING wager, optionally carrying a deposit.
func (s *Service) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !req.Stake.IsPositive() {
		writeError(w, "stake must be positive", http.StatusBadRequest)
		return
	}
	if req.Odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		writeError(w, "odds must be greater than 1.0 for a played coupon", http.StatusBadRequest)
		return
	}
	if req.Deposit.IsNegative() {
		writeError(w, "deposit cannot be negative", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	// The deposit riding on this coupon is spendable before the stake.
	snap := ledger.Status(coupons, s.target)
	shortfall := stake.Shortfall(snap.Budget.Add(req.Deposit), req.Stake)

	id := ledger.NextID(coupons)
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = defaultLabel(id)
	}

	coupons = append(coupons, model.Coupon{
		ID:      id,
		Label:   label,
		Result:  model.ResultPending,
		Stake:   req.Stake.Round(2),
		Odds:    req.Odds.Round(2),
		Deposit: req.Deposit.Round(2),
	})

	if err := s.saveLedger(ctx, coupons); err != nil {
		writeError(w, "failed to save ledger", http.StatusInternalServerError)
		return
	}

	metrics.CouponsCreated.WithLabelValues("wager").Inc()
	if shortfall.IsPositive() {
		slog.Warn("stake exceeds budget",
			"id", id,
			"stake", req.Stake.String(),
			"shortfall", shortfall.String(),
		)
	}
	slog.Info("coupon created",
		"id", id,
		"stake", req.Stake.String(),
		"odds", req.Odds.String(),
		"deposit", req.Deposit.String(),
	)

	s.publish("coupon_created", id, coupons)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CouponResponse{
		Coupon:    coupons[len(coupons)-1],
		Shortfall: shortfall,
	})
}

// ListCoupons handles GET /api/v1/coupons
// Returns the full recomputed sequence.
func (s *Service) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.loadLedger(r.Context())
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}
	if coupons == nil {
		coupons = []model.Coupon{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coupons)
}

// GetCoupon handles GET /api/v1/coupons/{couponID}
func (s *Service) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponIDParam(r)
	if err != nil {
		writeError(w, "invalid coupon id", http.StatusBadRequest)
		return
	}

	coupons, err := s.loadLedger(r.Context())
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	i := findCoupon(coupons, id)
	if i < 0 {
		writeError(w, "coupon not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coupons[i])
}

// SettleCoupon handles POST /api/v1/coupons/{couponID}/settle
// Transitions a PENDING coupon to WON or LOST. Both are terminal.
func (s *Service) SettleCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponIDParam(r)
	if err != nil {
		writeError(w, "invalid coupon id", http.StatusBadRequest)
		return
	}

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var result model.Result
	switch strings.ToUpper(strings.TrimSpace(req.Result)) {
	case "WON":
		result = model.ResultWon
	case "LOST":
		result = model.ResultLost
	default:
		writeError(w, "result must be won or lost", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	i := findCoupon(coupons, id)
	if i < 0 {
		writeError(w, "coupon not found", http.StatusNotFound)
		return
	}
	if coupons[i].Settled() {
		writeError(w, "coupon already settled", http.StatusConflict)
		return
	}

	coupons[i].Result = result

	if err := s.saveLedger(ctx, coupons); err != nil {
		writeError(w, "failed to save ledger", http.StatusInternalServerError)
		return
	}

	metrics.CouponsSettled.WithLabelValues(strings.ToLower(string(result))).Inc()
	slog.Info("coupon settled",
		"id", id,
		"result", result,
		"stake", coupons[i].Stake.String(),
		"gross_payout", coupons[i].GrossPayout.String(),
	)

	s.publish("coupon_settled", id, coupons)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coupons[i])
}

// EditCoupon handles PUT /api/v1/coupons/{couponID}
// Label, stake, and odds are editable while the coupon is PENDING. The
// result changes only through settlement.
func (s *Service) EditCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponIDParam(r)
	if err != nil {
		writeError(w, "invalid coupon id", http.StatusBadRequest)
		return
	}

	var req EditCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Stake.IsPositive() {
		writeError(w, "stake must be positive", http.StatusBadRequest)
		return
	}
	if req.Odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		writeError(w, "odds must be greater than 1.0 for a played coupon", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	i := findCoupon(coupons, id)
	if i < 0 {
		writeError(w, "coupon not found", http.StatusNotFound)
		return
	}
	if coupons[i].Settled() {
		writeError(w, "only pending coupons can be edited", http.StatusConflict)
		return
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = defaultLabel(id)
	}
	coupons[i].Label = label
	coupons[i].Stake = req.Stake.Round(2)
	coupons[i].Odds = req.Odds.Round(2)

	if err := s.saveLedger(ctx, coupons); err != nil {
		writeError(w, "failed to save ledger", http.StatusInternalServerError)
		return
	}

	slog.Info("coupon edited", "id", id, "stake", req.Stake.String(), "odds", req.Odds.String())
	s.publish("coupon_edited", id, coupons)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coupons[i])
}

// DeleteCoupon handles DELETE /api/v1/coupons/{couponID}
// Deletion is allowed from any state; remaining ids are never renumbered.
func (s *Service) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponIDParam(r)
	if err != nil {
		writeError(w, "invalid coupon id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	i := findCoupon(coupons, id)
	if i < 0 {
		writeError(w, "coupon not found", http.StatusNotFound)
		return
	}

	coupons = append(coupons[:i], coupons[i+1:]...)

	if err := s.saveLedger(ctx, coupons); err != nil {
		writeError(w, "failed to save ledger", http.StatusInternalServerError)
		return
	}

	slog.Info("coupon deleted", "id", id, "remaining", len(coupons))
	s.publish("coupon_deleted", id, coupons)

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCoupons handles DELETE /api/v1/coupons
// Bulk deletion; ids that do not exist are skipped.
func (s *Service) DeleteCoupons(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, "ids is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	drop := make(map[int64]bool, len(req.IDs))
	for _, id := range req.IDs {
		drop[id] = true
	}

	kept := coupons[:0]
	deleted := 0
	for i := range coupons {
		if drop[coupons[i].ID] {
			deleted++
			continue
		}
		kept = append(kept, coupons[i])
	}

	if deleted > 0 {
		if err := s.saveLedger(ctx, kept); err != nil {
			writeError(w, "failed to save ledger", http.StatusInternalServerError)
			return
		}
		slog.Info("coupons deleted", "count", deleted, "remaining", len(kept))
		s.publish("coupons_deleted", 0, kept)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"deleted": deleted})
}

// GetStatus handles GET /api/v1/status
func (s *Service) GetStatus(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.loadLedger(r.Context())
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	target := s.profitTarget()
	snap := ledger.Status(coupons, target)

	pending := 0
	for i := range coupons {
		if coupons[i].Pending() {
			pending++
		}
	}

	metrics.PendingCoupons.Set(float64(pending))
	metrics.Budget.Set(snap.Budget.InexactFloat64())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		Snapshot:     snap,
		ProfitTarget: target,
		Phase:        ledger.PhaseOf(snap.Balance),
		GoalReached:  snap.Budget.GreaterThanOrEqual(snap.Target),
		Pending:      pending,
	})
}

// RecommendStake handles GET /api/v1/recommend?odds=2.5
// Maps ErrGoalAlreadyMet to a "no stake needed" payload rather than an
// error: the goal being met is not a failure.
func (s *Service) RecommendStake(w http.ResponseWriter, r *http.Request) {
	odds, ok := model.ParseAmount(r.URL.Query().Get("odds"))
	if !ok {
		writeError(w, "odds query parameter is required", http.StatusBadRequest)
		return
	}

	coupons, err := s.loadLedger(r.Context())
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	snap := ledger.Status(coupons, s.profitTarget())

	recommended, err := stake.Recommend(snap.Budget, snap.Target, odds)
	switch {
	case errors.Is(err, stake.ErrInvalidOdds):
		metrics.Recommendations.WithLabelValues("invalid_odds").Inc()
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, stake.ErrGoalAlreadyMet):
		metrics.Recommendations.WithLabelValues("goal_met").Inc()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RecommendResponse{
			Odds:          odds,
			Budget:        snap.Budget,
			Target:        snap.Target,
			NoStakeNeeded: true,
		})
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.Recommendations.WithLabelValues("stake").Inc()
	slog.Info("stake recommended",
		"odds", odds.String(),
		"budget", snap.Budget.String(),
		"target", snap.Target.String(),
		"stake", recommended.String(),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecommendResponse{
		Odds:        odds,
		Recommended: recommended,
		Shortfall:   stake.Shortfall(snap.Budget, recommended),
		Budget:      snap.Budget,
		Target:      snap.Target,
	})
}

// PreviewOutcome handles GET /api/v1/preview?stake=10&odds=2.0&won=true
// Pure what-if against the current budget; nothing is committed.
func (s *Service) PreviewOutcome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stakeAmt, ok := model.ParseAmount(q.Get("stake"))
	if !ok || stakeAmt.IsNegative() {
		writeError(w, "stake query parameter is required", http.StatusBadRequest)
		return
	}
	odds, ok := model.ParseAmount(q.Get("odds"))
	if !ok || odds.LessThan(decimal.NewFromInt(1)) {
		writeError(w, "odds query parameter must be at least 1.0", http.StatusBadRequest)
		return
	}
	won, err := strconv.ParseBool(q.Get("won"))
	if err != nil {
		writeError(w, "won query parameter must be true or false", http.StatusBadRequest)
		return
	}

	coupons, err := s.loadLedger(r.Context())
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	snap := ledger.Status(coupons, s.profitTarget())
	outcome := stake.Potential(snap.Budget, stakeAmt, odds, won)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

// CreateDeposit handles POST /api/v1/deposits
// Appends a synthetic settled coupon carrying the capital injection:
// {WON, stake 0, odds 1}.
func (s *Service) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, "deposit amount must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	amount := req.Amount.Round(2)
	id := ledger.NextID(coupons)
	coupons = append(coupons, model.Coupon{
		ID:      id,
		Label:   "Deposit " + model.FormatAmount(amount),
		Result:  model.ResultWon,
		Stake:   decimal.Zero,
		Odds:    decimal.NewFromInt(1),
		Deposit: amount,
	})

	if err := s.saveLedger(ctx, coupons); err != nil {
		writeError(w, "failed to save ledger", http.StatusInternalServerError)
		return
	}

	metrics.CouponsCreated.WithLabelValues("deposit").Inc()
	slog.Info("deposit recorded", "id", id, "amount", amount.String())
	s.publish("deposit_recorded", id, coupons)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(coupons[len(coupons)-1])
}

// CreateWithdrawal handles POST /api/v1/withdrawals
// Appends a synthetic settled coupon removing capital: {LOST, stake=amount,
// odds 1, no deposit}. Unlike an over-budget stake, overdrawing is a hard
// error.
func (s *Service) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, "withdrawal amount must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.loadLedger(ctx)
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	amount := req.Amount.Round(2)
	snap := ledger.Status(coupons, s.target)
	if amount.GreaterThan(snap.Budget) {
		writeError(w, "withdrawal exceeds available budget", http.StatusConflict)
		return
	}

	id := ledger.NextID(coupons)
	coupons = append(coupons, model.Coupon{
		ID:      id,
		Label:   "Withdrawal " + model.FormatAmount(amount.Neg()),
		Result:  model.ResultLost,
		Stake:   amount,
		Odds:    decimal.NewFromInt(1),
		Deposit: decimal.Zero,
	})

	if err := s.saveLedger(ctx, coupons); err != nil {
		writeError(w, "failed to save ledger", http.StatusInternalServerError)
		return
	}

	metrics.CouponsCreated.WithLabelValues("withdrawal").Inc()
	slog.Info("withdrawal recorded", "id", id, "amount", amount.String())
	s.publish("withdrawal_recorded", id, coupons)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(coupons[len(coupons)-1])
}

// ListTransactions handles GET /api/v1/transactions
// Reconstructs the cash-movement history from the ledger rows.
func (s *Service) ListTransactions(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.loadLedger(r.Context())
	if err != nil {
		writeError(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	txs := ledger.Transactions(coupons)
	if txs == nil {
		txs = []model.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txs)
}

// GetTarget handles GET /api/v1/target
func (s *Service) GetTarget(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TargetPayload{ProfitTarget: s.profitTarget()})
}

// UpdateTarget handles PUT /api/v1/target
func (s *Service) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.ProfitTarget.IsPositive() {
		writeError(w, "profit target must be positive", http.StatusBadRequest)
		return
	}

	target := req.ProfitTarget.Round(2)

	s.mu.Lock()
	s.target = target
	s.mu.Unlock()

	if s.targets != nil {
		if err := s.targets.SaveTarget(r.Context(), target); err != nil {
			writeError(w, "failed to persist profit target", http.StatusInternalServerError)
			return
		}
	}

	slog.Info("profit target updated", "target", target.String())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TargetPayload{ProfitTarget: target})
}

// --- Helpers ---

func defaultLabel(id int64) string {
	return "Coupon #" + strconv.FormatInt(id, 10)
}

func couponIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "couponID"), 10, 64)
}

func findCoupon(coupons []model.Coupon, id int64) int {
	for i := range coupons {
		if coupons[i].ID == id {
			return i
		}
	}
	return -1
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
