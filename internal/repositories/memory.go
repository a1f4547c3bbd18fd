package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// memoryStore keeps every table in process. A transaction holds mu for its
// whole duration and restores a snapshot when it fails, so transactions are
// serialised and all-or-nothing.
type memoryStore struct {
	mu     sync.Mutex
	data   *memoryData
	logger *zap.Logger
}

type memoryData struct {
	users        map[string]models.User
	emails       map[string]string
	profiles     map[string]models.Profile
	profileOrder []string
	roles        map[string]models.Role

	activities    map[string]models.Activity
	activityOrder []string

	events       map[string]models.Event
	eventOrder   []string
	participants map[string]map[string]time.Time
	checkins     map[string]models.EventCheckin
	checkinOrder []string

	badges      []models.Badge
	userBadges  map[string][]models.UserBadge
	rewards     []models.Reward
	userRewards map[string][]models.UserReward
	streaks     map[string]models.UserStreak

	coupons         map[string]models.Coupon
	couponOrder     []string
	redemptions     map[string]models.UserCoupon
	redemptionOrder []string

	applications     map[string]models.OrganizerApplication
	applicationOrder []string
}

func newMemoryData() *memoryData {
	now := time.Now().UTC()
	d := &memoryData{
		users:        make(map[string]models.User),
		emails:       make(map[string]string),
		profiles:     make(map[string]models.Profile),
		roles:        make(map[string]models.Role),
		activities:   make(map[string]models.Activity),
		events:       make(map[string]models.Event),
		participants: make(map[string]map[string]time.Time),
		checkins:     make(map[string]models.EventCheckin),
		badges:       seedBadges(now),
		userBadges:   make(map[string][]models.UserBadge),
		rewards:      seedRewards(),
		userRewards:  make(map[string][]models.UserReward),
		streaks:      make(map[string]models.UserStreak),
		coupons:      make(map[string]models.Coupon),
		redemptions:  make(map[string]models.UserCoupon),
		applications: make(map[string]models.OrganizerApplication),
	}
	for _, c := range seedCoupons(now) {
		d.coupons[c.ID] = c
		d.couponOrder = append(d.couponOrder, c.ID)
	}
	return d
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		users:            maps.Clone(d.users),
		emails:           maps.Clone(d.emails),
		profiles:         maps.Clone(d.profiles),
		profileOrder:     slices.Clone(d.profileOrder),
		roles:            maps.Clone(d.roles),
		activities:       maps.Clone(d.activities),
		activityOrder:    slices.Clone(d.activityOrder),
		events:           maps.Clone(d.events),
		eventOrder:       slices.Clone(d.eventOrder),
		participants:     make(map[string]map[string]time.Time, len(d.participants)),
		checkins:         maps.Clone(d.checkins),
		checkinOrder:     slices.Clone(d.checkinOrder),
		badges:           slices.Clone(d.badges),
		userBadges:       make(map[string][]models.UserBadge, len(d.userBadges)),
		rewards:          slices.Clone(d.rewards),
		userRewards:      make(map[string][]models.UserReward, len(d.userRewards)),
		streaks:          maps.Clone(d.streaks),
		coupons:          maps.Clone(d.coupons),
		couponOrder:      slices.Clone(d.couponOrder),
		redemptions:      maps.Clone(d.redemptions),
		redemptionOrder:  slices.Clone(d.redemptionOrder),
		applications:     maps.Clone(d.applications),
		applicationOrder: slices.Clone(d.applicationOrder),
	}
	for k, v := range d.participants {
		c.participants[k] = maps.Clone(v)
	}
	for k, v := range d.userBadges {
		c.userBadges[k] = slices.Clone(v)
	}
	for k, v := range d.userRewards {
		c.userRewards[k] = slices.Clone(v)
	}
	return c
}

// NewMemoryCollection creates a collection backed by process memory,
// seeded with the default badge, reward and coupon catalog
func NewMemoryCollection(logger *zap.Logger) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &memoryStore{data: newMemoryData(), logger: logger}
	c := store.collection(false)
	logger.Info("Repository collection initialized", zap.String("provider", ProviderMemory))
	return c
}

func (s *memoryStore) collection(inTx bool) *Collection {
	v := memView{s: s, inTx: inTx}
	return &Collection{
		User:         &memUserRepo{v},
		Profile:      &memProfileRepo{v},
		Role:         &memRoleRepo{v},
		Activity:     &memActivityRepo{v},
		Event:        &memEventRepo{v},
		Gamification: &memGamificationRepo{v},
		Coupon:       &memCouponRepo{v},
		Application:  &memApplicationRepo{v},
		Stats:        &memStatsRepo{v},
		provider:     ProviderMemory,
		inTx:         inTx,
		memory:       s,
		logger:       s.logger,
	}
}

func (s *memoryStore) withTransaction(ctx context.Context, fn func(*Collection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
	}()

	if err := fn(s.collection(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// memView is shared by the memory repositories. Inside a transaction the
// store lock is already held.
type memView struct {
	s    *memoryStore
	inTx bool
}

func (v memView) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (v memView) d() *memoryData {
	return v.s.data
}

func now() time.Time {
	return time.Now().UTC()
}

func pairKey(a, b string) string {
	return a + "|" + b
}

// ===============================
// USERS, PROFILES, ROLES
// ===============================

type memUserRepo struct{ memView }

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	defer r.lock()()
	d := r.d()

	email := strings.ToLower(user.Email)
	if _, taken := d.emails[email]; taken {
		return fmt.Errorf("failed to create user: %w", ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = email
	user.CreatedAt = now()
	d.users[user.ID] = *user
	d.emails[email] = user.ID
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	defer r.lock()()
	u, ok := r.d().users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	defer r.lock()()
	d := r.d()
	id, ok := d.emails[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	u := d.users[id]
	return &u, nil
}

func (r *memUserRepo) SetPasswordHash(_ context.Context, id, hash string) error {
	defer r.lock()()
	d := r.d()
	u, ok := d.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = &hash
	d.users[id] = u
	return nil
}

func (r *memUserRepo) SetBannedUntil(_ context.Context, id string, until *time.Time) error {
	defer r.lock()()
	d := r.d()
	u, ok := d.users[id]
	if !ok {
		return ErrNotFound
	}
	u.BannedUntil = until
	d.users[id] = u
	return nil
}

type memProfileRepo struct{ memView }

func (r *memProfileRepo) Create(_ context.Context, p *models.Profile) error {
	defer r.lock()()
	d := r.d()

	if _, exists := d.profiles[p.UserID]; exists {
		return fmt.Errorf("failed to create profile: %w", ErrDuplicate)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AccountStatus == "" {
		p.AccountStatus = models.AccountActive
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	d.profiles[p.UserID] = *p
	d.profileOrder = append(d.profileOrder, p.UserID)
	return nil
}

func (r *memProfileRepo) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	defer r.lock()()
	p, ok := r.d().profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memProfileRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Profile, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *memProfileRepo) Update(_ context.Context, p *models.Profile) error {
	defer r.lock()()
	d := r.d()
	current, ok := d.profiles[p.UserID]
	if !ok {
		return ErrNotFound
	}
	current.Name = p.Name
	current.City = p.City
	current.AvatarURL = p.AvatarURL
	current.UpdatedAt = now()
	d.profiles[p.UserID] = current
	p.UpdatedAt = current.UpdatedAt
	return nil
}

func (r *memProfileRepo) AddPoints(_ context.Context, userID string, delta int) (int, error) {
	defer r.lock()()
	d := r.d()
	p, ok := d.profiles[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if p.Points+delta < 0 {
		return 0, fmt.Errorf("failed to add points: balance would be negative")
	}
	p.Points += delta
	p.UpdatedAt = now()
	d.profiles[userID] = p
	return p.Points, nil
}

func (r *memProfileRepo) SetAccountStatus(_ context.Context, userID string, status models.AccountStatus) error {
	defer r.lock()()
	d := r.d()
	p, ok := d.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.AccountStatus = status
	p.UpdatedAt = now()
	d.profiles[userID] = p
	return nil
}

func (r *memProfileRepo) Leaderboard(_ context.Context, limit int) ([]models.Profile, error) {
	defer r.lock()()
	d := r.d()

	profiles := []models.Profile{}
	for _, id := range d.profileOrder {
		if p := d.profiles[id]; p.AccountStatus == models.AccountActive {
			profiles = append(profiles, p)
		}
	}
	slices.SortStableFunc(profiles, func(a, b models.Profile) int {
		return b.Points - a.Points
	})
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

func (r *memProfileRepo) ListSummaries(_ context.Context) ([]models.UserSummary, error) {
	defer r.lock()()
	d := r.d()

	users := []models.UserSummary{}
	for i := len(d.profileOrder) - 1; i >= 0; i-- {
		p := d.profiles[d.profileOrder[i]]
		role := d.roles[p.UserID]
		if role == "" {
			role = models.RoleCitizen
		}
		users = append(users, models.UserSummary{Profile: p, Email: d.users[p.UserID].Email, Role: role})
	}
	return users, nil
}

func (r *memProfileRepo) Count(_ context.Context) (int64, error) {
	defer r.lock()()
	return int64(len(r.d().profiles)), nil
}

func (r *memProfileRepo) TotalPoints(_ context.Context) (int64, error) {
	defer r.lock()()
	var total int64
	for _, p := range r.d().profiles {
		total += int64(p.Points)
	}
	return total, nil
}

type memRoleRepo struct{ memView }

func (r *memRoleRepo) GetRole(_ context.Context, userID string) (models.Role, error) {
	defer r.lock()()
	return r.d().roles[userID], nil
}

func (r *memRoleRepo) SetRole(_ context.Context, userID string, role models.Role) error {
	defer r.lock()()
	r.d().roles[userID] = role
	return nil
}

// ===============================
// ACTIVITIES
// ===============================

type memActivityRepo struct{ memView }

func (r *memActivityRepo) Create(_ context.Context, a *models.Activity) error {
	defer r.lock()()
	d := r.d()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.ActivityPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	stored := *a
	stored.SubmitterName = ""
	d.activities[a.ID] = stored
	d.activityOrder = append(d.activityOrder, a.ID)
	return nil
}

func (r *memActivityRepo) GetByID(_ context.Context, id string) (*models.Activity, error) {
	defer r.lock()()
	a, ok := r.d().activities[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memActivityRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Activity, error) {
	return r.GetByID(ctx, id)
}

func (r *memActivityRepo) UpdateReview(_ context.Context, a *models.Activity) error {
	defer r.lock()()
	d := r.d()
	current, ok := d.activities[a.ID]
	if !ok {
		return ErrNotFound
	}
	current.Status = a.Status
	current.PointsAwarded = a.PointsAwarded
	current.ReviewedBy = a.ReviewedBy
	d.activities[a.ID] = current
	return nil
}

// newestFirst walks activities in reverse insertion order
func (r *memActivityRepo) newestFirst(keep func(models.Activity) bool, limit int) []models.Activity {
	d := r.d()
	out := []models.Activity{}
	for i := len(d.activityOrder) - 1; i >= 0; i-- {
		a := d.activities[d.activityOrder[i]]
		if !keep(a) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r *memActivityRepo) withNames(activities []models.Activity) []models.Activity {
	d := r.d()
	for i := range activities {
		activities[i].SubmitterName = d.profiles[activities[i].UserID].Name
	}
	return activities
}

func (r *memActivityRepo) ListByUser(_ context.Context, userID string, limit int) ([]models.Activity, error) {
	defer r.lock()()
	return r.newestFirst(func(a models.Activity) bool { return a.UserID == userID }, limit), nil
}

func (r *memActivityRepo) ListByStatus(_ context.Context, status models.ActivityStatus, limit int) ([]models.Activity, error) {
	defer r.lock()()
	return r.withNames(r.newestFirst(func(a models.Activity) bool { return a.Status == status }, limit)), nil
}

func (r *memActivityRepo) List(_ context.Context, params models.PaginationParams) ([]models.Activity, int64, error) {
	defer r.lock()()
	params = params.Normalize()

	all := r.newestFirst(func(models.Activity) bool { return true }, 0)
	total := int64(len(all))
	if params.Offset >= len(all) {
		return []models.Activity{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(all) {
		end = len(all)
	}
	return r.withNames(all[params.Offset:end]), total, nil
}

func (r *memActivityRepo) Counts(_ context.Context) (*models.ActivityCounts, error) {
	defer r.lock()()
	counts := &models.ActivityCounts{
		ByStatus: make(map[models.ActivityStatus]int64),
		ByType:   make(map[models.ActivityType]int64),
	}
	for _, a := range r.d().activities {
		counts.ByStatus[a.Status]++
		counts.ByType[a.Type]++
	}
	return counts, nil
}

// ===============================
// EVENTS
// ===============================

type memEventRepo struct{ memView }

func (r *memEventRepo) Create(_ context.Context, e *models.Event) error {
	defer r.lock()()
	d := r.d()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = now()
	d.events[e.ID] = *e
	d.eventOrder = append(d.eventOrder, e.ID)
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	defer r.lock()()
	e, ok := r.d().events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memEventRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *memEventRepo) Delete(_ context.Context, id string) error {
	defer r.lock()()
	d := r.d()
	if _, ok := d.events[id]; !ok {
		return ErrNotFound
	}
	delete(d.events, id)
	delete(d.participants, id)
	d.eventOrder = slices.DeleteFunc(d.eventOrder, func(s string) bool { return s == id })

	kept := d.checkinOrder[:0]
	for _, key := range d.checkinOrder {
		if d.checkins[key].EventID == id {
			delete(d.checkins, key)
			continue
		}
		kept = append(kept, key)
	}
	d.checkinOrder = kept
	return nil
}

func (r *memEventRepo) summaries(keep func(models.Event) bool) []models.EventSummary {
	d := r.d()
	events := []models.EventSummary{}
	for _, id := range d.eventOrder {
		e := d.events[id]
		if !keep(e) {
			continue
		}
		s := models.EventSummary{Event: e, ParticipantCount: len(d.participants[id])}
		for _, c := range d.checkins {
			if c.EventID == id {
				s.CheckinCount++
			}
		}
		events = append(events, s)
	}
	slices.SortStableFunc(events, func(a, b models.EventSummary) int {
		return a.EventDate.Compare(b.EventDate)
	})
	return events
}

func (r *memEventRepo) List(_ context.Context) ([]models.EventSummary, error) {
	defer r.lock()()
	return r.summaries(func(models.Event) bool { return true }), nil
}

func (r *memEventRepo) ListByCreator(_ context.Context, userID string) ([]models.EventSummary, error) {
	defer r.lock()()
	return r.summaries(func(e models.Event) bool { return e.CreatedBy == userID }), nil
}

func (r *memEventRepo) Count(_ context.Context) (int64, error) {
	defer r.lock()()
	return int64(len(r.d().events)), nil
}

func (r *memEventRepo) AddParticipant(_ context.Context, eventID, userID string) error {
	defer r.lock()()
	d := r.d()
	if _, ok := d.events[eventID]; !ok {
		return fmt.Errorf("failed to join event: %w", ErrNotFound)
	}
	members := d.participants[eventID]
	if members == nil {
		members = make(map[string]time.Time)
		d.participants[eventID] = members
	}
	if _, joined := members[userID]; joined {
		return fmt.Errorf("failed to join event: %w", ErrDuplicate)
	}
	members[userID] = now()
	return nil
}

func (r *memEventRepo) RemoveParticipant(_ context.Context, eventID, userID string) error {
	defer r.lock()()
	delete(r.d().participants[eventID], userID)
	return nil
}

func (r *memEventRepo) IsParticipant(_ context.Context, eventID, userID string) (bool, error) {
	defer r.lock()()
	_, joined := r.d().participants[eventID][userID]
	return joined, nil
}

func (r *memEventRepo) GetCheckin(_ context.Context, eventID, userID string) (*models.EventCheckin, error) {
	defer r.lock()()
	c, ok := r.d().checkins[pairKey(eventID, userID)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memEventRepo) CreateCheckin(_ context.Context, c *models.EventCheckin) error {
	defer r.lock()()
	d := r.d()
	key := pairKey(c.EventID, c.UserID)
	if _, exists := d.checkins[key]; exists {
		return fmt.Errorf("failed to create checkin: %w", ErrDuplicate)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CheckedInAt = now()
	d.checkins[key] = *c
	d.checkinOrder = append(d.checkinOrder, key)
	return nil
}

func (r *memEventRepo) CheckinsByUser(_ context.Context, userID string) ([]models.CheckinHistoryItem, error) {
	defer r.lock()()
	d := r.d()
	items := []models.CheckinHistoryItem{}
	for i := len(d.checkinOrder) - 1; i >= 0; i-- {
		c := d.checkins[d.checkinOrder[i]]
		if c.UserID != userID {
			continue
		}
		e := d.events[c.EventID]
		items = append(items, models.CheckinHistoryItem{
			EventCheckin:  c,
			EventTitle:    e.Title,
			EventDate:     e.EventDate,
			EventLocation: e.Location,
		})
	}
	return items, nil
}

// ===============================
// BADGES, REWARDS, STREAKS
// ===============================

type memGamificationRepo struct{ memView }

var categoryRank = map[models.BadgeCategory]int{
	models.BadgeMilestone:       0,
	models.BadgeStreak:          1,
	models.BadgeCommunityImpact: 2,
}

func (r *memGamificationRepo) ListBadges(_ context.Context) ([]models.Badge, error) {
	defer r.lock()()
	badges := slices.Clone(r.d().badges)
	slices.SortStableFunc(badges, func(a, b models.Badge) int {
		if ca, cb := categoryRank[a.Category], categoryRank[b.Category]; ca != cb {
			return ca - cb
		}
		switch {
		case a.CriteriaValue < b.CriteriaValue:
			return -1
		case a.CriteriaValue > b.CriteriaValue:
			return 1
		}
		return 0
	})
	return badges, nil
}

func (r *memGamificationRepo) UserBadges(_ context.Context, userID string) ([]models.UserBadge, error) {
	defer r.lock()()
	unlocks := slices.Clone(r.d().userBadges[userID])
	if unlocks == nil {
		unlocks = []models.UserBadge{}
	}
	return unlocks, nil
}

func (r *memGamificationRepo) AwardBadge(_ context.Context, userID, badgeID string) (bool, error) {
	defer r.lock()()
	d := r.d()
	owned := d.userBadges[userID]
	if slices.ContainsFunc(owned, func(ub models.UserBadge) bool { return ub.BadgeID == badgeID }) {
		return false, nil
	}
	d.userBadges[userID] = append(owned, models.UserBadge{
		ID:         uuid.NewString(),
		UserID:     userID,
		BadgeID:    badgeID,
		UnlockedAt: now(),
	})
	return true, nil
}

func (r *memGamificationRepo) BadgeIconsByUser(_ context.Context, userIDs []string) (map[string][]string, error) {
	defer r.lock()()
	d := r.d()

	iconByBadge := make(map[string]string, len(d.badges))
	for _, b := range d.badges {
		iconByBadge[b.ID] = b.Icon
	}

	icons := make(map[string][]string, len(userIDs))
	for _, id := range userIDs {
		for _, ub := range d.userBadges[id] {
			icons[id] = append(icons[id], iconByBadge[ub.BadgeID])
		}
	}
	return icons, nil
}

func (r *memGamificationRepo) ListRewards(_ context.Context) ([]models.Reward, error) {
	defer r.lock()()
	rewards := slices.Clone(r.d().rewards)
	slices.SortStableFunc(rewards, func(a, b models.Reward) int {
		return a.PointsRequired - b.PointsRequired
	})
	return rewards, nil
}

func (r *memGamificationRepo) UserRewards(_ context.Context, userID string) ([]models.UserReward, error) {
	defer r.lock()()
	unlocks := slices.Clone(r.d().userRewards[userID])
	if unlocks == nil {
		unlocks = []models.UserReward{}
	}
	return unlocks, nil
}

func (r *memGamificationRepo) AwardReward(_ context.Context, userID, rewardID string) (bool, error) {
	defer r.lock()()
	d := r.d()
	owned := d.userRewards[userID]
	if slices.ContainsFunc(owned, func(ur models.UserReward) bool { return ur.RewardID == rewardID }) {
		return false, nil
	}
	d.userRewards[userID] = append(owned, models.UserReward{
		ID:         uuid.NewString(),
		UserID:     userID,
		RewardID:   rewardID,
		UnlockedAt: now(),
	})
	return true, nil
}

func (r *memGamificationRepo) GetStreak(_ context.Context, userID string) (*models.UserStreak, error) {
	defer r.lock()()
	s, ok := r.d().streaks[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memGamificationRepo) GetStreakForUpdate(ctx context.Context, userID string) (*models.UserStreak, error) {
	return r.GetStreak(ctx, userID)
}

func (r *memGamificationRepo) SaveStreak(_ context.Context, s *models.UserStreak) error {
	defer r.lock()()
	d := r.d()
	if existing, ok := d.streaks[s.UserID]; ok {
		s.ID = existing.ID
	} else if s.ID == "" {
		s.ID = uuid.NewString()
	}
	d.streaks[s.UserID] = *s
	return nil
}

// ===============================
// COUPONS
// ===============================

type memCouponRepo struct{ memView }

func (r *memCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	defer r.lock()()
	d := r.d()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now()
	d.coupons[c.ID] = *c
	d.couponOrder = append(d.couponOrder, c.ID)
	return nil
}

func (r *memCouponRepo) GetByID(_ context.Context, id string) (*models.Coupon, error) {
	defer r.lock()()
	c, ok := r.d().coupons[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memCouponRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Coupon, error) {
	return r.GetByID(ctx, id)
}

func (r *memCouponRepo) ListActive(_ context.Context) ([]models.Coupon, error) {
	defer r.lock()()
	d := r.d()
	coupons := []models.Coupon{}
	for _, id := range d.couponOrder {
		if c := d.coupons[id]; c.IsActive {
			coupons = append(coupons, c)
		}
	}
	slices.SortStableFunc(coupons, func(a, b models.Coupon) int {
		return a.PointsCost - b.PointsCost
	})
	return coupons, nil
}

func (r *memCouponRepo) SetActive(_ context.Context, id string, active bool) error {
	defer r.lock()()
	d := r.d()
	c, ok := d.coupons[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	d.coupons[id] = c
	return nil
}

func (r *memCouponRepo) IncrementRedeemed(_ context.Context, id string) error {
	defer r.lock()()
	d := r.d()
	c, ok := d.coupons[id]
	if !ok {
		return ErrNotFound
	}
	c.TotalRedeemed++
	d.coupons[id] = c
	return nil
}

func (r *memCouponRepo) GetRedemption(_ context.Context, userID, couponID string) (*models.UserCoupon, error) {
	defer r.lock()()
	uc, ok := r.d().redemptions[pairKey(userID, couponID)]
	if !ok {
		return nil, nil
	}
	return &uc, nil
}

func (r *memCouponRepo) CreateRedemption(_ context.Context, uc *models.UserCoupon) error {
	defer r.lock()()
	d := r.d()
	key := pairKey(uc.UserID, uc.CouponID)
	if _, exists := d.redemptions[key]; exists {
		return fmt.Errorf("failed to create redemption: %w", ErrDuplicate)
	}
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	uc.RedeemedAt = now()
	d.redemptions[key] = *uc
	d.redemptionOrder = append(d.redemptionOrder, key)
	return nil
}

func (r *memCouponRepo) RedemptionsByUser(_ context.Context, userID string) ([]models.RedeemedCoupon, error) {
	defer r.lock()()
	d := r.d()
	redeemed := []models.RedeemedCoupon{}
	for i := len(d.redemptionOrder) - 1; i >= 0; i-- {
		uc := d.redemptions[d.redemptionOrder[i]]
		if uc.UserID != userID {
			continue
		}
		redeemed = append(redeemed, models.RedeemedCoupon{UserCoupon: uc, Coupon: d.coupons[uc.CouponID]})
	}
	return redeemed, nil
}

// ===============================
// ORGANIZER APPLICATIONS
// ===============================

type memApplicationRepo struct{ memView }

func (r *memApplicationRepo) Create(_ context.Context, a *models.OrganizerApplication) error {
	defer r.lock()()
	d := r.d()
	for _, existing := range d.applications {
		if existing.UserID == a.UserID && existing.Status == models.ApplicationPending {
			return fmt.Errorf("failed to create application: %w", ErrDuplicate)
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	a.CreatedAt = now()
	d.applications[a.ID] = *a
	d.applicationOrder = append(d.applicationOrder, a.ID)
	return nil
}

func (r *memApplicationRepo) GetByID(_ context.Context, id string) (*models.OrganizerApplication, error) {
	defer r.lock()()
	a, ok := r.d().applications[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memApplicationRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.OrganizerApplication, error) {
	return r.GetByID(ctx, id)
}

func (r *memApplicationRepo) LatestByUser(_ context.Context, userID string) (*models.OrganizerApplication, error) {
	defer r.lock()()
	d := r.d()
	for i := len(d.applicationOrder) - 1; i >= 0; i-- {
		if a := d.applications[d.applicationOrder[i]]; a.UserID == userID {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *memApplicationRepo) HasPending(_ context.Context, userID string) (bool, error) {
	defer r.lock()()
	for _, a := range r.d().applications {
		if a.UserID == userID && a.Status == models.ApplicationPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *memApplicationRepo) List(_ context.Context, status *models.ApplicationStatus) ([]models.OrganizerApplication, error) {
	defer r.lock()()
	d := r.d()
	apps := []models.OrganizerApplication{}
	for i := len(d.applicationOrder) - 1; i >= 0; i-- {
		a := d.applications[d.applicationOrder[i]]
		if status != nil && a.Status != *status {
			continue
		}
		apps = append(apps, a)
	}
	return apps, nil
}

func (r *memApplicationRepo) UpdateReview(_ context.Context, a *models.OrganizerApplication) error {
	defer r.lock()()
	d := r.d()
	current, ok := d.applications[a.ID]
	if !ok {
		return ErrNotFound
	}
	current.Status = a.Status
	current.AdminRemarks = a.AdminRemarks
	current.ReviewedBy = a.ReviewedBy
	current.ReviewedAt = a.ReviewedAt
	d.applications[a.ID] = current
	return nil
}

// ===============================
// STATS
// ===============================

type memStatsRepo struct{ memView }

func (r *memStatsRepo) LandingStats(_ context.Context) (*models.LandingStats, error) {
	defer r.lock()()
	d := r.d()
	s := &models.LandingStats{
		Volunteers: int64(len(d.profiles)),
		Events:     int64(len(d.events)),
	}
	for _, a := range d.activities {
		if a.Status != models.ActivityApproved {
			continue
		}
		s.ApprovedActivities++
		if a.Type == models.ActivityTreePlantation {
			s.TreesPlanted++
		}
		if a.WasteKg != nil {
			s.WasteCollectedKg += *a.WasteKg
		}
	}
	return s, nil
}
