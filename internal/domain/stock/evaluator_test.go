package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var enabled = Policy{ManagementEnabled: true}

func Test_Evaluate_Quantity_EnoughWithExisting(t *testing.T) {
	// 在庫10、カートに3、今回5 → 合計8はOK
	rec := &Record{Quantity: 10}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(5), QuantityCommitment(3))

	assert.NoError(t, err)
	assert.True(t, res.Available)
	assert.True(t, res.SufficientForTotal)
	assert.Equal(t, float64(7), res.Headroom)
	assert.Equal(t, float64(10), res.AvailableAmount)
	assert.Equal(t, ReasonOK, res.Reason)
}

func Test_Evaluate_Quantity_Insufficient(t *testing.T) {
	// 在庫10、カートに8、今回5 → 合計13はNG、残り2
	rec := &Record{Quantity: 10}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(5), QuantityCommitment(8))

	assert.NoError(t, err)
	assert.True(t, res.Available) // 5単独なら足りる
	assert.False(t, res.SufficientForTotal)
	assert.Equal(t, float64(2), res.Headroom)
	assert.Equal(t, ReasonInsufficient, res.Reason)
}

func Test_Evaluate_Quantity_AtMaximum(t *testing.T) {
	// 在庫5、カートに5、今回1 → 残り0
	rec := &Record{Quantity: 5}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(1), QuantityCommitment(5))

	assert.NoError(t, err)
	assert.False(t, res.SufficientForTotal)
	assert.Equal(t, float64(0), res.Headroom)
	assert.Equal(t, ReasonAtMaximum, res.Reason)
}

func Test_Evaluate_Weight_CommitmentIsUnitTimesPerUnit(t *testing.T) {
	// 在庫1000g、カートに2個×200g=400g、今回500g → 合計900gはOK
	rec := &Record{WeightGrams: 1000}

	res, err := Evaluate(enabled, ModeWeight, rec, WeightRequest(500), WeightCommitment(2, 200))

	assert.NoError(t, err)
	assert.True(t, res.SufficientForTotal)
	assert.Equal(t, float64(600), res.Headroom)
	assert.Equal(t, ReasonOK, res.Reason)
}

func Test_Evaluate_PolicyDisabled_AlwaysAvailable(t *testing.T) {
	disabled := Policy{ManagementEnabled: false}

	// レコード無しでも、足りない在庫でも、OFFなら常にOK
	cases := []struct {
		name string
		rec  *Record
	}{
		{"no record", nil},
		{"zero record", &Record{}},
		{"small record", &Record{Quantity: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Evaluate(disabled, ModeQuantity, tc.rec, QuantityRequest(9999), QuantityCommitment(9999))

			assert.NoError(t, err)
			assert.True(t, res.Available)
			assert.True(t, res.SufficientForTotal)
			assert.Equal(t, Unlimited, res.AvailableAmount)
			assert.Equal(t, ReasonDisabled, res.Reason)
		})
	}
}

func Test_Evaluate_NoRecord_NeverAvailable(t *testing.T) {
	res, err := Evaluate(enabled, ModeWeight, nil, WeightRequest(0), Commitment{})

	assert.NoError(t, err)
	assert.False(t, res.Available)
	assert.False(t, res.SufficientForTotal)
	assert.Equal(t, float64(0), res.Headroom)
	assert.Equal(t, float64(0), res.AvailableAmount)
	assert.Equal(t, ReasonNoRecord, res.Reason)
}

func Test_Evaluate_ExactBoundaryIsSufficient(t *testing.T) {
	// ぴったり＝OK（境界は>=/<=）
	rec := &Record{Quantity: 10}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(10), Commitment{})
	assert.NoError(t, err)
	assert.True(t, res.Available)
	assert.True(t, res.SufficientForTotal)
	assert.Equal(t, ReasonOK, res.Reason)

	res, err = Evaluate(enabled, ModeQuantity, rec, QuantityRequest(4), QuantityCommitment(6))
	assert.NoError(t, err)
	assert.True(t, res.SufficientForTotal)
	assert.Equal(t, float64(4), res.Headroom)
}

func Test_Evaluate_ZeroRequestAlwaysSatisfiable(t *testing.T) {
	rec := &Record{Quantity: 0}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(0), Commitment{})

	assert.NoError(t, err)
	assert.True(t, res.Available)
	assert.True(t, res.SufficientForTotal)
}

func Test_Evaluate_SingleRequestOverStock(t *testing.T) {
	rec := &Record{Quantity: 3}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(4), Commitment{})

	assert.NoError(t, err)
	assert.False(t, res.Available)
	assert.False(t, res.SufficientForTotal)
}

func Test_Evaluate_InputErrors(t *testing.T) {
	rec := &Record{Quantity: 10, WeightGrams: 1000}

	// モード違いの量
	_, err := Evaluate(enabled, ModeQuantity, rec, WeightRequest(100), Commitment{})
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = Evaluate(enabled, ModeWeight, rec, QuantityRequest(1), Commitment{})
	assert.ErrorIs(t, err, ErrModeMismatch)

	// 既存分のモード違い
	_, err = Evaluate(enabled, ModeQuantity, rec, QuantityRequest(1), WeightCommitment(1, 100))
	assert.ErrorIs(t, err, ErrModeMismatch)

	// 負の量
	_, err = Evaluate(enabled, ModeQuantity, rec, QuantityRequest(-1), Commitment{})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Evaluate(enabled, ModeWeight, rec, WeightRequest(-0.5), Commitment{})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	// 未知モード
	_, err = Evaluate(enabled, Mode("VOLUME"), rec, QuantityRequest(1), Commitment{})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func Test_Evaluate_Idempotent(t *testing.T) {
	rec := &Record{WeightGrams: 500}
	req := WeightRequest(300)
	existing := WeightCommitment(1, 100)

	first, err1 := Evaluate(enabled, ModeWeight, rec, req, existing)
	second, err2 := Evaluate(enabled, ModeWeight, rec, req, existing)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

func Test_Evaluate_NegativeHeadroomClampedForDisplay(t *testing.T) {
	// 在庫より既存分が多い（在庫が後から減った場合）
	rec := &Record{Quantity: 3}

	res, err := Evaluate(enabled, ModeQuantity, rec, QuantityRequest(1), QuantityCommitment(5))

	assert.NoError(t, err)
	assert.Equal(t, float64(-2), res.Headroom)
	assert.Equal(t, float64(0), res.DisplayHeadroom())
	assert.Equal(t, ReasonAtMaximum, res.Reason)
}
