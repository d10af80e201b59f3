package rewards

import (
	"math"
	"testing"

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

func rewardParams() models.Params {
	params := models.DefaultParams()
	params.Rewards = models.RewardParams{
		Enabled:   true,
		MinRate:   0.01,
		MaxRate:   0.10,
		Steepness: 10.0,
		Midpoint:  0.5,
	}
	return params
}

func TestRateMonotoneDecreasing(t *testing.T) {
	p := rewardParams().Rewards

	prev := math.Inf(1)
	for _, wp := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1.0, 2.0} {
		rate := Rate(p, wp)
		if rate >= prev {
			t.Errorf("rate(%v) = %v, not below rate at lower weight %v", wp, rate, prev)
		}
		if rate < p.MinRate || rate > p.MaxRate {
			t.Errorf("rate(%v) = %v outside [%v, %v]", wp, rate, p.MinRate, p.MaxRate)
		}
		prev = rate
	}
}

func TestRateMidpoint(t *testing.T) {
	p := rewardParams().Rewards
	got := Rate(p, p.Midpoint)
	want := p.MinRate + (p.MaxRate-p.MinRate)/2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("rate at midpoint = %v, want %v", got, want)
	}
}

func TestForSupportDisabled(t *testing.T) {
	params := rewardParams()
	params.Rewards.Enabled = false

	lock := models.NewLock("0x01", "init-a", 1000, 10, 1)
	if got := ForSupport(params, lock, 0); got != 0 {
		t.Errorf("reward = %v, want 0 when disabled", got)
	}
}

func TestForSupportScalesWithAmount(t *testing.T) {
	params := rewardParams()

	small := models.NewLock("0x01", "init-a", 100, 10, 1)
	large := models.NewLock("0x02", "init-a", 1000, 10, 1)

	rSmall := ForSupport(params, small, 0)
	rLarge := ForSupport(params, large, 0)
	if math.Abs(rLarge-10*rSmall) > 1e-9 {
		t.Errorf("reward not linear in amount: %v vs 10*%v", rLarge, rSmall)
	}
}

func TestForSupportEarlyBackerEarnsMore(t *testing.T) {
	params := rewardParams()
	lock := models.NewLock("0x01", "init-a", 500, 10, 1)

	early := ForSupport(params, lock, 0)
	late := ForSupport(params, lock, params.AcceptanceThreshold*0.9)
	if early <= late {
		t.Errorf("early reward %v not above late reward %v", early, late)
	}
}

func TestRecord(t *testing.T) {
	params := rewardParams()
	state := models.NewState(params)
	state.CurrentEpoch = 4
	state.Balances["0x01"] = 1050 // already credited with the 50 reward

	lock := models.NewLock("0x01", "init-a", 500, 10, 4)
	Record(state, lock, 50, 200)

	if got := state.RewardEarnings["0x01"]; got != 50 {
		t.Errorf("earnings = %v, want 50", got)
	}
	if len(state.RewardEvents) != 1 {
		t.Fatalf("events = %d, want 1", len(state.RewardEvents))
	}

	ev := state.RewardEvents[0]
	if ev.Epoch != 4 || ev.UserID != "0x01" || ev.InitiativeID != "init-a" {
		t.Errorf("event identity wrong: %+v", ev)
	}
	if ev.RewardAmount != 50 || ev.SupportAmount != 500 || ev.LockDuration != 10 {
		t.Errorf("event amounts wrong: %+v", ev)
	}
	if ev.InitiativeWeight != 200 {
		t.Errorf("event weight = %v, want 200", ev.InitiativeWeight)
	}
	if ev.WeightPercentage != 200/params.AcceptanceThreshold {
		t.Errorf("weight percentage = %v", ev.WeightPercentage)
	}
	if ev.BalanceBefore != 1000 || ev.BalanceAfter != 1050 {
		t.Errorf("balances = %v -> %v, want 1000 -> 1050", ev.BalanceBefore, ev.BalanceAfter)
	}
}

func TestRecordAccumulates(t *testing.T) {
	state := models.NewState(rewardParams())
	state.Balances["0x01"] = 100

	lock := models.NewLock("0x01", "init-a", 10, 5, 1)
	Record(state, lock, 5, 0)
	Record(state, lock, 7, 50)

	if got := state.RewardEarnings["0x01"]; got != 12 {
		t.Errorf("earnings = %v, want 12", got)
	}
	if len(state.RewardEvents) != 2 {
		t.Errorf("events = %d, want 2", len(state.RewardEvents))
	}
}
