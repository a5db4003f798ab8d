package iot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot/mocks"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

func TestRunAnalyticsLoop_KeepsGoingAfterFailure(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	mockIAnalytics := mocks.NewMockIAnalytics(ctrl)
	iotObj.WithServices(iot.ServiceOpts{Analytics: mockIAnalytics})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	gomock.InOrder(
		mockIAnalytics.EXPECT().
			Compute(gomock.Any(), gomock.Eq(iotObj.Options.StalenessWindow)).
			Return(nil, &iot.AggregationUnavailableError{Err: errors.New("db down")}),
		mockIAnalytics.EXPECT().
			Compute(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, time.Duration) (*models.AnalyticsSnapshot, error) {
				cancel()
				return &models.AnalyticsSnapshot{}, nil
			}),
	)
	// the ticker may fire once more before the loop sees the cancellation
	mockIAnalytics.EXPECT().Compute(gomock.Any(), gomock.Any()).Return(&models.AnalyticsSnapshot{}, nil).AnyTimes()

	go func() {
		iotObj.RunAnalyticsLoop(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("analytics loop did not stop")
	}
	assert.Error(t, ctx.Err())
}
