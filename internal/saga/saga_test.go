package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRun_AllStepsSucceed(t *testing.T) {
	var order []string
	err := Run(context.Background(), zap.NewNop().Sugar(), []Step{
		{Name: "first", Run: func(ctx context.Context) error { order = append(order, "first"); return nil }},
		{Name: "second", Run: func(ctx context.Context) error { order = append(order, "second"); return nil }},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRun_CompensatesInReverseOrder(t *testing.T) {
	var compensated []string
	boom := errors.New("boom")

	err := Run(context.Background(), zap.NewNop().Sugar(), []Step{
		{
			Name:       "first",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "first"); return nil },
		},
		{
			Name:       "second",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "second"); return nil },
		},
		{
			Name: "third",
			Run:  func(ctx context.Context) error { return boom },
		},
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"second", "first"}, compensated)
}

func TestRun_NilCompensationIsSkipped(t *testing.T) {
	var compensated []string

	err := Run(context.Background(), zap.NewNop().Sugar(), []Step{
		{Name: "first", Run: func(ctx context.Context) error { return nil }},
		{
			Name:       "second",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "second"); return nil },
		},
		{Name: "third", Run: func(ctx context.Context) error { return errors.New("boom") }},
	})

	assert.Error(t, err)
	assert.Equal(t, []string{"second"}, compensated)
}

func TestRun_LaterStepsNotRunAfterFailure(t *testing.T) {
	ran := false

	err := Run(context.Background(), zap.NewNop().Sugar(), []Step{
		{Name: "first", Run: func(ctx context.Context) error { return errors.New("boom") }},
		{Name: "second", Run: func(ctx context.Context) error { ran = true; return nil }},
	})

	assert.Error(t, err)
	assert.False(t, ran)
}
