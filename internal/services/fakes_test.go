package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"greenlens/internal/carbon"
	"greenlens/internal/catalog"
	"greenlens/internal/models"
	"greenlens/internal/repositories"
)

// fakeStore is an in-memory stand-in for the Postgres schema. Each
// top-level transaction snapshots the store and restores it on error.
type fakeStore struct {
	mu sync.Mutex

	products    map[string]*models.Product
	scans       []models.Scan
	progress    map[string]*models.UserProgress
	challenges  []*models.Challenge
	enrollments []*models.UserChallenge
	badges      []models.Badge
	earned      []models.UserBadge

	failures map[string]error
	calls    map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]*models.Product),
		progress: make(map[string]*models.UserProgress),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (s *fakeStore) collection() *repositories.Collection {
	return &repositories.Collection{
		Product:   &fakeProducts{s},
		Scan:      &fakeScans{s},
		User:      &fakeUsers{s},
		Challenge: &fakeChallenges{s},
		Badge:     &fakeBadges{s},
		Tx:        &fakeTx{store: s},
	}
}

// failOn makes every later call of op return err
func (s *fakeStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *fakeStore) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

type snapshot struct {
	products    map[string]models.Product
	scans       []models.Scan
	progress    map[string]models.UserProgress
	enrollments []models.UserChallenge
	earned      []models.UserBadge
}

func (s *fakeStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		products: make(map[string]models.Product, len(s.products)),
		scans:    slices.Clone(s.scans),
		progress: make(map[string]models.UserProgress, len(s.progress)),
		earned:   slices.Clone(s.earned),
	}
	for k, v := range s.products {
		snap.products[k] = *v
	}
	for k, v := range s.progress {
		snap.progress[k] = *v
	}
	for _, uc := range s.enrollments {
		snap.enrollments = append(snap.enrollments, *uc)
	}
	return snap
}

func (s *fakeStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]*models.Product, len(snap.products))
	for k, v := range snap.products {
		p := v
		s.products[k] = &p
	}
	s.scans = snap.scans
	s.progress = make(map[string]*models.UserProgress, len(snap.progress))
	for k, v := range snap.progress {
		p := v
		s.progress[k] = &p
	}
	s.enrollments = nil
	for _, uc := range snap.enrollments {
		e := uc
		s.enrollments = append(s.enrollments, &e)
	}
	s.earned = snap.earned
}

func (s *fakeStore) productByID(id uuid.UUID) *models.Product {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *fakeStore) challengeByID(id uuid.UUID) *models.Challenge {
	for _, c := range s.challenges {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ===============================
// SEED HELPERS
// ===============================

func (s *fakeStore) addProduct(p models.Product) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV4())
	}
	s.products[p.Barcode] = &p
	return &p
}

func (s *fakeStore) addChallenge(title string, criteria models.Criteria, reward int) *models.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Challenge{
		ID:           uuid.Must(uuid.NewV4()),
		Title:        title,
		Category:     criteria.Kind(),
		Criteria:     criteria,
		PointsReward: reward,
		IsActive:     true,
	}
	s.challenges = append(s.challenges, c)
	return c
}

func (s *fakeStore) addBadge(name string, criteria models.BadgeCriteria, value, order int) models.Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := models.Badge{
		ID:            uuid.Must(uuid.NewV4()),
		Name:          name,
		CriteriaType:  criteria,
		CriteriaValue: value,
		DisplayOrder:  order,
	}
	s.badges = append(s.badges, b)
	return b
}

func (s *fakeStore) progressOf(userID string) models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[userID]; ok {
		return *p
	}
	return models.UserProgress{}
}

func (s *fakeStore) earnedCount(userID string, badgeID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ub := range s.earned {
		if ub.UserID == userID && ub.BadgeID == badgeID {
			n++
		}
	}
	return n
}

func (s *fakeStore) scanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scans)
}

// ===============================
// TRANSACTOR
// ===============================

type fakeTxKey struct{}

type fakeTx struct {
	store *fakeStore
	// serializes transactions the way the progress row lock would
	mu sync.Mutex
}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.mu.Lock()
	err := t.store.enter("tx.begin")
	t.store.mu.Unlock()
	if err != nil {
		return err
	}

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// ===============================
// PRODUCTS
// ===============================

type fakeProducts struct{ s *fakeStore }

func (r *fakeProducts) Create(_ context.Context, product *models.Product) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("product.create"); err != nil {
		return false, err
	}
	if _, ok := r.s.products[product.Barcode]; ok {
		return false, nil
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.Must(uuid.NewV4())
	}
	stored := *product
	r.s.products[product.Barcode] = &stored
	return true, nil
}

func (r *fakeProducts) GetByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("product.get"); err != nil {
		return nil, err
	}
	if p, ok := r.s.products[barcode]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("product.get"); err != nil {
		return nil, err
	}
	if p := r.s.productByID(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeProducts) IncrementScanCount(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("product.increment"); err != nil {
		return err
	}
	if p := r.s.productByID(id); p != nil {
		p.ScanCount++
	}
	return nil
}

func (r *fakeProducts) FindAlternatives(_ context.Context, q repositories.AlternativeQuery) ([]*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("product.alternatives"); err != nil {
		return nil, err
	}

	var out []*models.Product
	for _, p := range r.s.products {
		if slices.Contains(q.ExcludeBarcodes, p.Barcode) ||
			p.CarbonFootprint >= q.FootprintBelow ||
			!slices.Contains(q.Grades, p.EcoScore) {
			continue
		}
		match := q.CategoryContains != "" && p.Category != nil && containsFold(*p.Category, q.CategoryContains)
		if !match && q.RawCategoryContains != "" && p.RawCategories != nil {
			match = containsFold(*p.RawCategories, q.RawCategoryContains)
		}
		if match {
			cp := *p
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EcoScore != b.EcoScore {
			return a.EcoScore < b.EcoScore
		}
		if a.CarbonFootprint != b.CarbonFootprint {
			return a.CarbonFootprint < b.CarbonFootprint
		}
		return a.ScanCount > b.ScanCount
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ===============================
// SCANS
// ===============================

type fakeScans struct{ s *fakeStore }

func (r *fakeScans) Create(_ context.Context, scan *models.Scan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("scan.create"); err != nil {
		return err
	}
	r.s.scans = append(r.s.scans, *scan)
	return nil
}

func (r *fakeScans) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Scan, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("scan.list"); err != nil {
		return nil, 0, err
	}
	var mine []models.Scan
	for i := len(r.s.scans) - 1; i >= 0; i-- {
		if r.s.scans[i].UserID == userID {
			mine = append(mine, r.s.scans[i])
		}
	}
	total := len(mine)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return mine[offset:end], total, nil
}

func (r *fakeScans) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("scan.count"); err != nil {
		return 0, err
	}
	n := 0
	for _, sc := range r.s.scans {
		if sc.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeScans) CountScansInCategory(_ context.Context, userID, keyword string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("scan.history"); err != nil {
		return 0, err
	}
	n := 0
	for _, sc := range r.s.scans {
		if sc.UserID != userID || sc.ProductID == nil {
			continue
		}
		if p := r.s.productByID(*sc.ProductID); p != nil && p.Category != nil && containsFold(*p.Category, keyword) {
			n++
		}
	}
	return n, nil
}

func (r *fakeScans) CountScansWithGrades(_ context.Context, userID string, grades []carbon.Grade) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("scan.history"); err != nil {
		return 0, err
	}
	n := 0
	for _, sc := range r.s.scans {
		if sc.UserID != userID || sc.ProductID == nil {
			continue
		}
		if p := r.s.productByID(*sc.ProductID); p != nil && slices.Contains(grades, p.EcoScore) {
			n++
		}
	}
	return n, nil
}

// ===============================
// USERS
// ===============================

type fakeUsers struct{ s *fakeStore }

func (r *fakeUsers) EnsureProgress(_ context.Context, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.ensure"); err != nil {
		return false, err
	}
	if _, ok := r.s.progress[userID]; ok {
		return false, nil
	}
	r.s.progress[userID] = &models.UserProgress{UserID: userID, CreatedAt: time.Now()}
	return true, nil
}

func (r *fakeUsers) GetProgress(_ context.Context, userID string) (*models.UserProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.get"); err != nil {
		return nil, err
	}
	if p, ok := r.s.progress[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUsers) LockProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	if ctx.Value(fakeTxKey{}) == nil {
		return nil, fmt.Errorf("lock progress outside transaction")
	}
	r.s.mu.Lock()
	err := r.s.enter("user.lock")
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p, err := r.GetProgress(ctx, userID)
	if err == nil && p == nil {
		return nil, fmt.Errorf("user progress %s: %w", userID, repositories.ErrNotFound)
	}
	return p, err
}

func (r *fakeUsers) ApplyScan(_ context.Context, userID string, u models.ProgressUpdate) (*models.UserProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.apply"); err != nil {
		return nil, err
	}
	p, ok := r.s.progress[userID]
	if !ok {
		return nil, fmt.Errorf("no progress for %s", userID)
	}
	p.TotalPoints += u.PointsDelta
	last, active := u.LastScanDate, u.LastActiveAt
	p.LastScanDate = &last
	p.LastActiveAt = &active
	if u.StreakDays != nil {
		p.StreakDays = *u.StreakDays
	}
	p.ScanCount++
	if u.EcoScan {
		p.EcoScanCount++
	}
	cp := *p
	return &cp, nil
}

func (r *fakeUsers) AddPoints(_ context.Context, userID string, points int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.points"); err != nil {
		return 0, err
	}
	p, ok := r.s.progress[userID]
	if !ok {
		return 0, fmt.Errorf("no progress for %s", userID)
	}
	p.TotalPoints += points
	return p.TotalPoints, nil
}

func (r *fakeUsers) SetScanCounters(_ context.Context, userID string, scanCount, ecoScanCount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.counters"); err != nil {
		return err
	}
	p, ok := r.s.progress[userID]
	if !ok {
		return fmt.Errorf("no progress for %s", userID)
	}
	p.ScanCount, p.EcoScanCount = scanCount, ecoScanCount
	return nil
}

func (r *fakeUsers) ListUserIDs(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.list"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(r.s.progress))
	for id := range r.s.progress {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ===============================
// CHALLENGES
// ===============================

type fakeChallenges struct{ s *fakeStore }

func (r *fakeChallenges) ListActive(_ context.Context) ([]*models.Challenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.list"); err != nil {
		return nil, err
	}
	var out []*models.Challenge
	for _, c := range r.s.challenges {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChallenges) GetByID(_ context.Context, id uuid.UUID) (*models.Challenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.get"); err != nil {
		return nil, err
	}
	return r.s.challengeByID(id), nil
}

func (r *fakeChallenges) Upsert(_ context.Context, challenge *models.Challenge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, c := range r.s.challenges {
		if c.Title == challenge.Title {
			challenge.ID = c.ID
			r.s.challenges[i] = challenge
			return nil
		}
	}
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.Must(uuid.NewV4())
	}
	r.s.challenges = append(r.s.challenges, challenge)
	return nil
}

func (r *fakeChallenges) find(userID string, challengeID uuid.UUID) *models.UserChallenge {
	for _, uc := range r.s.enrollments {
		if uc.UserID == userID && uc.ChallengeID == challengeID {
			return uc
		}
	}
	return nil
}

func (r *fakeChallenges) withChallenge(uc *models.UserChallenge) *models.UserChallenge {
	cp := *uc
	cp.Challenge = r.s.challengeByID(uc.ChallengeID)
	return &cp
}

func (r *fakeChallenges) Enroll(_ context.Context, userID string, challengeID uuid.UUID) (*models.UserChallenge, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.enroll"); err != nil {
		return nil, false, err
	}
	if uc := r.find(userID, challengeID); uc != nil {
		return r.withChallenge(uc), false, nil
	}
	uc := &models.UserChallenge{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		ChallengeID: challengeID,
		CreatedAt:   time.Now(),
	}
	r.s.enrollments = append(r.s.enrollments, uc)
	return r.withChallenge(uc), true, nil
}

func (r *fakeChallenges) GetEnrollment(_ context.Context, userID string, challengeID uuid.UUID) (*models.UserChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.enrollment"); err != nil {
		return nil, err
	}
	if uc := r.find(userID, challengeID); uc != nil {
		return r.withChallenge(uc), nil
	}
	return nil, nil
}

func (r *fakeChallenges) list(userID string, openOnly bool) []*models.UserChallenge {
	var out []*models.UserChallenge
	for _, uc := range r.s.enrollments {
		if uc.UserID == userID && (!openOnly || !uc.Completed) {
			out = append(out, r.withChallenge(uc))
		}
	}
	return out
}

func (r *fakeChallenges) ListEnrollments(_ context.Context, userID string) ([]*models.UserChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.enrollments"); err != nil {
		return nil, err
	}
	return r.list(userID, false), nil
}

func (r *fakeChallenges) ListOpenEnrollments(_ context.Context, userID string) ([]*models.UserChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.open"); err != nil {
		return nil, err
	}
	return r.list(userID, true), nil
}

func (r *fakeChallenges) byID(id uuid.UUID) *models.UserChallenge {
	for _, uc := range r.s.enrollments {
		if uc.ID == id {
			return uc
		}
	}
	return nil
}

func (r *fakeChallenges) UpdateProgress(_ context.Context, enrollmentID uuid.UUID, progress int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.progress"); err != nil {
		return err
	}
	if uc := r.byID(enrollmentID); uc != nil && !uc.Completed {
		uc.Progress = progress
	}
	return nil
}

func (r *fakeChallenges) MarkCompleted(_ context.Context, enrollmentID uuid.UUID, progress int, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("challenge.complete"); err != nil {
		return false, err
	}
	uc := r.byID(enrollmentID)
	if uc == nil || uc.Completed {
		return false, nil
	}
	uc.Completed = true
	uc.Progress = progress
	uc.CompletedAt = &at
	return true, nil
}

func (r *fakeChallenges) CountCompleted(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, uc := range r.s.enrollments {
		if uc.UserID == userID && uc.Completed {
			n++
		}
	}
	return n, nil
}

// ===============================
// BADGES
// ===============================

type fakeBadges struct{ s *fakeStore }

func (r *fakeBadges) List(_ context.Context) ([]models.Badge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("badge.list"); err != nil {
		return nil, err
	}
	out := slices.Clone(r.s.badges)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *fakeBadges) Upsert(_ context.Context, badge *models.Badge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, b := range r.s.badges {
		if b.Name == badge.Name {
			badge.ID = b.ID
			r.s.badges[i] = *badge
			return nil
		}
	}
	if badge.ID == uuid.Nil {
		badge.ID = uuid.Must(uuid.NewV4())
	}
	r.s.badges = append(r.s.badges, *badge)
	return nil
}

func (r *fakeBadges) ListEarned(_ context.Context, userID string) ([]models.UserBadge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("badge.earned"); err != nil {
		return nil, err
	}
	var out []models.UserBadge
	for _, ub := range r.s.earned {
		if ub.UserID == userID {
			out = append(out, ub)
		}
	}
	return out, nil
}

func (r *fakeBadges) Award(_ context.Context, userID string, badgeID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("badge.award"); err != nil {
		return false, err
	}
	for _, ub := range r.s.earned {
		if ub.UserID == userID && ub.BadgeID == badgeID {
			return false, nil
		}
	}
	r.s.earned = append(r.s.earned, models.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: at})
	return true, nil
}

func (r *fakeBadges) CountEarned(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, ub := range r.s.earned {
		if ub.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ===============================
// CATALOG
// ===============================

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*catalog.ProductMetadata
	err      error
	calls    int

	// when gate is set, lookups announce themselves on started and wait
	// for gate to close
	gate    chan struct{}
	started chan struct{}
}

// hold makes subsequent lookups block until the returned func is called
func (c *fakeCatalog) hold() (release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = make(chan struct{})
	c.started = make(chan struct{}, 8)
	gate := c.gate
	return func() { close(gate) }
}

func (c *fakeCatalog) LookupBarcode(ctx context.Context, barcode string) (*catalog.ProductMetadata, error) {
	c.mu.Lock()
	c.calls++
	gate, started := c.gate, c.started
	c.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if meta, ok := c.products[barcode]; ok {
		cp := *meta
		return &cp, nil
	}
	return nil, catalog.ErrProductNotFound
}
