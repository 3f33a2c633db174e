package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/shopspring/decimal"
)

func sortedByID[T any](m map[int64]T) []T {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// ---------- users ----------

type usersRepo struct{ v *view }

func (r usersRepo) Create(_ context.Context, u *models.User) error {
	for _, existing := range r.v.st.users {
		if existing.WalletAddress == u.WalletAddress {
			return repo.ErrConflict
		}
	}
	u.ID = r.v.st.next("users")
	u.RegisteredAt = r.v.now()
	u.TotalOffsets = decimal.Zero
	u.TradingVolume = decimal.Zero
	r.v.st.users[u.ID] = *u
	return nil
}

func (r usersRepo) GetByID(_ context.Context, id int64) (models.User, error) {
	u, ok := r.v.st.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r usersRepo) GetByWallet(_ context.Context, wallet string) (models.User, error) {
	for _, u := range r.v.st.users {
		if u.WalletAddress == wallet {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (r usersRepo) List(_ context.Context, limit, offset int) ([]models.User, error) {
	return page(sortedByID(r.v.st.users), limit, offset), nil
}

func (r usersRepo) AddTotals(_ context.Context, id int64, offsets, volume decimal.Decimal) error {
	u, ok := r.v.st.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.TotalOffsets = u.TotalOffsets.Add(offsets)
	u.TradingVolume = u.TradingVolume.Add(volume)
	r.v.st.users[id] = u
	return nil
}

func (r usersRepo) SetVerification(_ context.Context, id int64, verified bool, level models.VerificationLevel) error {
	u, ok := r.v.st.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsVerified = verified
	u.VerificationLevel = level
	r.v.st.users[id] = u
	return nil
}

// ---------- credits ----------

type creditsRepo struct{ v *view }

func (r creditsRepo) Create(_ context.Context, c *models.Credit) error {
	if _, ok := r.v.st.users[c.OwnerID]; !ok {
		return repo.ErrNotFound
	}
	var maxToken int64
	for _, existing := range r.v.st.credits {
		maxToken = max(maxToken, existing.TokenID)
	}
	c.ID = r.v.st.next("credits")
	c.TokenID = maxToken + 1
	c.Retired = false
	if c.IssuedAt.IsZero() {
		c.IssuedAt = r.v.now()
	}
	r.v.st.credits[c.ID] = *c
	return nil
}

func (r creditsRepo) GetByID(_ context.Context, id int64) (models.Credit, error) {
	c, ok := r.v.st.credits[id]
	if !ok {
		return models.Credit{}, repo.ErrNotFound
	}
	return c, nil
}

func (r creditsRepo) GetForUpdate(ctx context.Context, id int64) (models.Credit, error) {
	return r.GetByID(ctx, id)
}

func (r creditsRepo) Update(_ context.Context, c models.Credit) error {
	cur, ok := r.v.st.credits[c.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if c.Retired && c.ForSale {
		return repo.ErrConstraint
	}
	if c.MinBidPrice.GreaterThan(c.Price) {
		return repo.ErrConstraint
	}
	cur.OwnerID = c.OwnerID
	cur.Price = c.Price
	cur.MinBidPrice = c.MinBidPrice
	cur.ForSale = c.ForSale
	cur.Retired = c.Retired
	cur.Partnership = c.Partnership
	cur.RetiredAt = c.RetiredAt
	cur.CertificationLevel = c.CertificationLevel
	r.v.st.credits[c.ID] = cur
	return nil
}

func (r creditsRepo) ListForSale(_ context.Context, limit, offset int) ([]models.Credit, error) {
	var out []models.Credit
	for _, c := range sortedByID(r.v.st.credits) {
		if c.Available() {
			out = append(out, c)
		}
	}
	return page(out, limit, offset), nil
}

func (r creditsRepo) ListByOwner(_ context.Context, ownerID int64) ([]models.Credit, error) {
	var out []models.Credit
	for _, c := range sortedByID(r.v.st.credits) {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r creditsRepo) Stats(_ context.Context) (models.MarketStats, error) {
	var s models.MarketStats
	projects := map[string]struct{}{}
	sum := decimal.Zero
	for _, c := range r.v.st.credits {
		projects[c.ProjectName] = struct{}{}
		if c.Retired {
			s.CreditsRetired++
		}
		if c.Available() {
			s.CreditsForSale++
			sum = sum.Add(c.Price)
		}
	}
	s.ProjectCount = int64(len(projects))
	s.AveragePrice = decimal.Zero
	if s.CreditsForSale > 0 {
		s.AveragePrice = sum.Div(decimal.NewFromInt(s.CreditsForSale))
	}
	return s, nil
}

// ---------- transactions ----------

type transactionsRepo struct{ v *view }

func (r transactionsRepo) Create(_ context.Context, t *models.Transaction) error {
	t.ID = r.v.st.next("transactions")
	t.CreatedAt = r.v.now()
	r.v.st.transactions[t.ID] = *t
	return nil
}

func (r transactionsRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range sortedByID(r.v.st.transactions) {
		if t.BuyerID == userID || t.SellerID == userID {
			out = append(out, t)
		}
	}
	slices.Reverse(out)
	return page(out, limit, offset), nil
}

func (r transactionsRepo) ListByCredit(_ context.Context, creditID int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range sortedByID(r.v.st.transactions) {
		if t.CreditID == creditID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ---------- bids ----------

type bidsRepo struct{ v *view }

func (r bidsRepo) Create(_ context.Context, b *models.TradingBid) error {
	b.ID = r.v.st.next("bids")
	b.CreatedAt = r.v.now()
	r.v.st.bids[b.ID] = *b
	return nil
}

func (r bidsRepo) GetByID(_ context.Context, id int64) (models.TradingBid, error) {
	b, ok := r.v.st.bids[id]
	if !ok {
		return models.TradingBid{}, repo.ErrNotFound
	}
	return b, nil
}

func (r bidsRepo) GetForUpdate(ctx context.Context, id int64) (models.TradingBid, error) {
	return r.GetByID(ctx, id)
}

func (r bidsRepo) UpdateStatus(_ context.Context, id int64, status models.BidStatus, acceptedAt *time.Time) error {
	b, ok := r.v.st.bids[id]
	if !ok {
		return repo.ErrNotFound
	}
	b.Status = status
	b.AcceptedAt = acceptedAt
	r.v.st.bids[id] = b
	return nil
}

func (r bidsRepo) ListByCredit(_ context.Context, creditID int64) ([]models.TradingBid, error) {
	var out []models.TradingBid
	for _, b := range sortedByID(r.v.st.bids) {
		if b.CreditID == creditID {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b models.TradingBid) int { return b.Price.Cmp(a.Price) })
	return out, nil
}

func (r bidsRepo) ListByBidder(_ context.Context, bidderID int64) ([]models.TradingBid, error) {
	var out []models.TradingBid
	for _, b := range sortedByID(r.v.st.bids) {
		if b.BidderID == bidderID {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b models.TradingBid) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (r bidsRepo) RejectOpen(_ context.Context, creditID, exceptID int64) ([]models.TradingBid, error) {
	var out []models.TradingBid
	for _, b := range sortedByID(r.v.st.bids) {
		if b.CreditID != creditID || b.ID == exceptID || b.Status != models.BidActive {
			continue
		}
		b.Status = models.BidRejected
		r.v.st.bids[b.ID] = b
		out = append(out, b)
	}
	return out, nil
}

// ---------- certifications ----------

type certificationsRepo struct{ v *view }

func (r certificationsRepo) Create(_ context.Context, c *models.CreditCertification) error {
	c.ID = r.v.st.next("certifications")
	c.IssuedAt = r.v.now()
	r.v.st.certifications[c.ID] = *c
	return nil
}

func (r certificationsRepo) ListByCredit(_ context.Context, creditID int64) ([]models.CreditCertification, error) {
	var out []models.CreditCertification
	for _, c := range sortedByID(r.v.st.certifications) {
		if c.CreditID == creditID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ---------- partnerships ----------

type partnershipsRepo struct{ v *view }

func (r partnershipsRepo) Create(_ context.Context, p *models.PartnershipCredit) error {
	p.ID = r.v.st.next("partnerships")
	p.CreatedAt = r.v.now()
	r.v.st.partnerships[p.ID] = *p
	return nil
}

func (r partnershipsRepo) GetByID(_ context.Context, id int64) (models.PartnershipCredit, error) {
	p, ok := r.v.st.partnerships[id]
	if !ok {
		return models.PartnershipCredit{}, repo.ErrNotFound
	}
	return p, nil
}

func (r partnershipsRepo) GetForUpdate(ctx context.Context, id int64) (models.PartnershipCredit, error) {
	return r.GetByID(ctx, id)
}

func (r partnershipsRepo) UpdateStatus(_ context.Context, id int64, status models.PartnershipStatus) error {
	p, ok := r.v.st.partnerships[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = status
	r.v.st.partnerships[id] = p
	return nil
}

func (r partnershipsRepo) ListByCredit(_ context.Context, creditID int64) ([]models.PartnershipCredit, error) {
	var out []models.PartnershipCredit
	for _, p := range sortedByID(r.v.st.partnerships) {
		if p.CreditID == creditID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r partnershipsRepo) ListByPartner(_ context.Context, partnerID int64) ([]models.PartnershipCredit, error) {
	var out []models.PartnershipCredit
	for _, p := range sortedByID(r.v.st.partnerships) {
		if p.PartnerID == partnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ---------- notifications ----------

type notificationsRepo struct{ v *view }

func (r notificationsRepo) Create(_ context.Context, n *models.Notification) error {
	n.ID = r.v.st.next("notifications")
	n.CreatedAt = r.v.now()
	n.IsRead = false
	r.v.st.notifications[n.ID] = *n
	return nil
}

func (r notificationsRepo) ListByUser(_ context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range sortedByID(r.v.st.notifications) {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	slices.Reverse(out)
	return page(out, limit, 0), nil
}

func (r notificationsRepo) MarkRead(_ context.Context, id, userID int64) error {
	n, ok := r.v.st.notifications[id]
	if !ok || n.UserID != userID {
		return repo.ErrNotFound
	}
	n.IsRead = true
	r.v.st.notifications[id] = n
	return nil
}
