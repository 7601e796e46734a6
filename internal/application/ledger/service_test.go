package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/pkg/fixedpoint"
)

const (
	aliceAddr = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bobAddr   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

type sentPayout struct {
	To     string
	Amount domain.Wei
	Memo   string
}

type fakeSender struct {
	Sends []sentPayout
	Fail  bool
}

func (f *fakeSender) Send(_ context.Context, to string, amount domain.Wei, memo string) error {
	if f.Fail {
		return errors.New("rail unavailable")
	}
	f.Sends = append(f.Sends, sentPayout{To: to, Amount: amount, Memo: memo})
	return nil
}

func setupLedgerTest(t *testing.T) (*Service, *gorm.DB, *fakeSender) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Project{}, &domain.Holding{},
		&domain.LedgerEvent{}, &domain.TreasuryState{},
	))
	sender := &fakeSender{}
	return &Service{DB: db, Mu: &sync.Mutex{}, Payout: sender}, db, sender
}

func createProject(t *testing.T, db *gorm.DB, supply, price, minPurchase uint64) *domain.Project {
	t.Helper()
	project := domain.Project{
		Creator:     "0xcccccccccccccccccccccccccccccccccccccccc",
		Name:        "Test Array",
		TotalSupply: supply,
		MinPurchase: minPurchase,
		PriceWei:    domain.NewWei(price),
		Active:      true,
	}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

func setPaused(t *testing.T, db *gorm.DB, paused bool) {
	t.Helper()
	treasury, err := domain.LoadTreasury(db)
	require.NoError(t, err)
	treasury.Paused = paused
	require.NoError(t, db.Save(treasury).Error)
}

// accrue simulates a revenue deposit by moving the accumulator directly.
func accrue(t *testing.T, db *gorm.DB, project *domain.Project, amount uint64) {
	t.Helper()
	require.NoError(t, db.Where("id = ?", project.ID).First(project).Error)
	require.NotZero(t, project.Minted)
	project.RewardPerUnit = project.RewardPerUnit.Add(fixedpoint.RewardIncrease(domain.NewWei(amount), project.Minted))
	require.NoError(t, db.Save(project).Error)
}

func TestPurchase(t *testing.T) {
	svc, db, sender := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 1000, 5, 10)

	result, err := svc.Purchase(ctx, project.ID, aliceAddr, 100, domain.NewWei(500))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), result.Units)
	assert.Equal(t, "500", result.CostWei.String())
	assert.True(t, result.RefundWei.IsZero())
	assert.Empty(t, sender.Sends)

	units, err := svc.BalanceOf(ctx, aliceAddr, project.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), units)

	got, err := domain.LoadTreasury(db)
	require.NoError(t, err)
	assert.Equal(t, "500", got.BalanceWei.String())
	assert.Equal(t, "500", got.TotalSalesBalance.String())

	require.NoError(t, db.Where("id = ?", project.ID).First(project).Error)
	assert.Equal(t, uint64(100), project.Minted)
	assert.Equal(t, "500", project.SalesBalance.String())
}

func TestPurchase_RefundsOverpayment(t *testing.T) {
	svc, db, sender := setupLedgerTest(t)
	project := createProject(t, db, 1000, 5, 10)

	result, err := svc.Purchase(context.Background(), project.ID, aliceAddr, 10, domain.NewWei(73))
	require.NoError(t, err)
	assert.Equal(t, "50", result.CostWei.String())
	assert.Equal(t, "23", result.RefundWei.String())

	require.Len(t, sender.Sends, 1)
	assert.Equal(t, aliceAddr, sender.Sends[0].To)
	assert.Equal(t, "23", sender.Sends[0].Amount.String())

	// Only the cost is retained.
	got, err := domain.LoadTreasury(db)
	require.NoError(t, err)
	assert.Equal(t, "50", got.BalanceWei.String())
}

func TestPurchase_RefundFailureRollsBack(t *testing.T) {
	svc, db, sender := setupLedgerTest(t)
	sender.Fail = true
	project := createProject(t, db, 1000, 5, 10)

	_, err := svc.Purchase(context.Background(), project.ID, aliceAddr, 10, domain.NewWei(73))
	assert.ErrorIs(t, err, ErrTransferFailed)

	require.NoError(t, db.Where("id = ?", project.ID).First(project).Error)
	assert.Zero(t, project.Minted)
	units, err := svc.BalanceOf(context.Background(), aliceAddr, project.ID)
	require.NoError(t, err)
	assert.Zero(t, units)
}

func TestPurchase_Validation(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 5, 10)

	_, err := svc.Purchase(ctx, 999, aliceAddr, 10, domain.NewWei(50))
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.Purchase(ctx, project.ID, aliceAddr, 0, domain.ZeroWei())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Purchase(ctx, project.ID, aliceAddr, 5, domain.NewWei(25))
	assert.ErrorIs(t, err, ErrBelowMinPurchase)

	_, err = svc.Purchase(ctx, project.ID, aliceAddr, 101, domain.NewWei(1000))
	assert.ErrorIs(t, err, ErrSupplyExhausted)

	_, err = svc.Purchase(ctx, project.ID, aliceAddr, 10, domain.NewWei(49))
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	require.NoError(t, db.Model(project).Update("active", false).Error)
	_, err = svc.Purchase(ctx, project.ID, aliceAddr, 10, domain.NewWei(50))
	assert.ErrorIs(t, err, ErrProjectNotActive)
}

func TestPurchase_ExactSupplyBoundary(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 100, domain.NewWei(100))
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, project.ID, bobAddr, 1, domain.NewWei(1))
	assert.ErrorIs(t, err, ErrSupplyExhausted)
}

func TestPurchase_SupplyGuardNearMaxUnits(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 50, domain.NewWei(50))
	require.NoError(t, err)

	// A unit count large enough to wrap minted+units must still read as
	// exhausted supply, before anything is settled or written.
	_, err = svc.Purchase(ctx, project.ID, bobAddr, math.MaxUint64-10, domain.ZeroWei())
	assert.ErrorIs(t, err, ErrSupplyExhausted)

	units, err := svc.BalanceOf(ctx, bobAddr, project.ID)
	require.NoError(t, err)
	assert.Zero(t, units)

	require.NoError(t, db.Where("id = ?", project.ID).First(project).Error)
	assert.Equal(t, uint64(50), project.Minted)
}

func TestPurchase_Paused(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	project := createProject(t, db, 100, 5, 10)
	setPaused(t, db, true)

	_, err := svc.Purchase(context.Background(), project.ID, aliceAddr, 10, domain.NewWei(50))
	assert.ErrorIs(t, err, ErrPaused)
}

func TestTransfer(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 60, domain.NewWei(60))
	require.NoError(t, err)

	require.NoError(t, svc.Transfer(ctx, aliceAddr, bobAddr, project.ID, 25))

	aliceUnits, err := svc.BalanceOf(ctx, aliceAddr, project.ID)
	require.NoError(t, err)
	bobUnits, err := svc.BalanceOf(ctx, bobAddr, project.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(35), aliceUnits)
	assert.Equal(t, uint64(25), bobUnits)
}

func TestTransfer_RewardsStayWithSender(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 50, domain.NewWei(50))
	require.NoError(t, err)
	accrue(t, db, project, 1000)

	// Everything accrued so far belongs to alice even though she gives all
	// units away.
	require.NoError(t, svc.Transfer(ctx, aliceAddr, bobAddr, project.ID, 50))

	var aliceH, bobH domain.Holding
	require.NoError(t, db.Where("holder = ? AND project_id = ?", aliceAddr, project.ID).First(&aliceH).Error)
	require.NoError(t, db.Where("holder = ? AND project_id = ?", bobAddr, project.ID).First(&bobH).Error)
	assert.Equal(t, "1000", aliceH.PendingReward.String())
	assert.True(t, bobH.PendingReward.IsZero())
	assert.Zero(t, aliceH.Units)
	assert.Equal(t, uint64(50), bobH.Units)

	// New accruals follow the units.
	accrue(t, db, project, 500)
	require.NoError(t, svc.Transfer(ctx, bobAddr, aliceAddr, project.ID, 1))

	require.NoError(t, db.Where("holder = ? AND project_id = ?", bobAddr, project.ID).First(&bobH).Error)
	assert.Equal(t, "500", bobH.PendingReward.String())
}

func TestTransfer_SelfTransfer(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 40, domain.NewWei(40))
	require.NoError(t, err)

	require.NoError(t, svc.Transfer(ctx, aliceAddr, aliceAddr, project.ID, 40))

	units, err := svc.BalanceOf(ctx, aliceAddr, project.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), units)

	// Still bounded by the balance.
	err = svc.Transfer(ctx, aliceAddr, aliceAddr, project.ID, 41)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransfer_Validation(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 10, domain.NewWei(10))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Transfer(ctx, aliceAddr, "bogus", project.ID, 5), ErrInvalidRecipient)
	assert.ErrorIs(t, svc.Transfer(ctx, aliceAddr, bobAddr, project.ID, 0), ErrInvalidAmount)
	assert.ErrorIs(t, svc.Transfer(ctx, aliceAddr, bobAddr, 999, 5), ErrProjectNotFound)
	assert.ErrorIs(t, svc.Transfer(ctx, aliceAddr, bobAddr, project.ID, 11), ErrInsufficientBalance)
	assert.ErrorIs(t, svc.Transfer(ctx, bobAddr, aliceAddr, project.ID, 1), ErrInsufficientBalance)

	setPaused(t, db, true)
	assert.ErrorIs(t, svc.Transfer(ctx, aliceAddr, bobAddr, project.ID, 5), ErrPaused)
}

func TestTransfer_WorksOnInactiveProject(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 10, domain.NewWei(10))
	require.NoError(t, err)
	require.NoError(t, db.Model(project).Update("active", false).Error)

	assert.NoError(t, svc.Transfer(ctx, aliceAddr, bobAddr, project.ID, 5))
}

func TestTransferBatch(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	p1 := createProject(t, db, 100, 1, 1)
	p2 := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, p1.ID, aliceAddr, 10, domain.NewWei(10))
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, p2.ID, aliceAddr, 20, domain.NewWei(20))
	require.NoError(t, err)

	err = svc.TransferBatch(ctx, aliceAddr, bobAddr, []uint64{p1.ID}, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	// Empty batch is a no-op even while paused.
	setPaused(t, db, true)
	assert.NoError(t, svc.TransferBatch(ctx, aliceAddr, bobAddr, nil, nil))
	setPaused(t, db, false)

	require.NoError(t, svc.TransferBatch(ctx, aliceAddr, bobAddr, []uint64{p1.ID, p2.ID}, []uint64{5, 15}))
	b1, _ := svc.BalanceOf(ctx, bobAddr, p1.ID)
	b2, _ := svc.BalanceOf(ctx, bobAddr, p2.ID)
	assert.Equal(t, uint64(5), b1)
	assert.Equal(t, uint64(15), b2)
}

func TestTransferBatch_FailureRollsBackAll(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	p1 := createProject(t, db, 100, 1, 1)
	p2 := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, p1.ID, aliceAddr, 10, domain.NewWei(10))
	require.NoError(t, err)

	// Second element overdraws; the first must not survive.
	err = svc.TransferBatch(ctx, aliceAddr, bobAddr, []uint64{p1.ID, p2.ID}, []uint64{5, 5})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	units, err := svc.BalanceOf(ctx, bobAddr, p1.ID)
	require.NoError(t, err)
	assert.Zero(t, units)
}

func TestBalanceOf_UnknownIsZero(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	units, err := svc.BalanceOf(context.Background(), aliceAddr, 77)
	require.NoError(t, err)
	assert.Zero(t, units)
}

func TestPortfolio(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	p1 := createProject(t, db, 100, 1, 1)
	p2 := createProject(t, db, 100, 1, 1)
	p3 := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, p1.ID, aliceAddr, 10, domain.NewWei(10))
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, p2.ID, aliceAddr, 20, domain.NewWei(20))
	require.NoError(t, err)

	// A position with zero units but unclaimed rewards stays listed.
	accrue(t, db, p1, 100)
	require.NoError(t, svc.Transfer(ctx, aliceAddr, bobAddr, p1.ID, 10))

	// A position emptied with nothing pending disappears.
	_, err = svc.Purchase(ctx, p3.ID, aliceAddr, 5, domain.NewWei(5))
	require.NoError(t, err)
	require.NoError(t, svc.Transfer(ctx, aliceAddr, bobAddr, p3.ID, 5))

	page, err := svc.Portfolio(ctx, aliceAddr, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Holdings, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.False(t, page.HasMore)
	assert.Equal(t, p1.ID, page.Holdings[0].ProjectID)
	assert.Equal(t, p2.ID, page.Holdings[1].ProjectID)

	page, err = svc.Portfolio(ctx, aliceAddr, 0, 1)
	require.NoError(t, err)
	assert.Len(t, page.Holdings, 1)
	assert.True(t, page.HasMore)
}

func TestSettle_Idempotent(t *testing.T) {
	svc, db, _ := setupLedgerTest(t)
	ctx := context.Background()
	project := createProject(t, db, 100, 1, 1)

	_, err := svc.Purchase(ctx, project.ID, aliceAddr, 10, domain.NewWei(10))
	require.NoError(t, err)
	accrue(t, db, project, 100)

	h1, err := Settle(db, project, aliceAddr)
	require.NoError(t, err)
	h2, err := Settle(db, project, aliceAddr)
	require.NoError(t, err)
	assert.True(t, h1.PendingReward.Equal(h2.PendingReward))
	assert.Equal(t, "100", h2.PendingReward.String())
}
