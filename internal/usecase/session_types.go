package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

// CallRequest describes who is starting a consultation.
type CallRequest struct {
	Type     domain.ConsultationType
	UserName string
	UserRole domain.UserRole
}

type activeCall struct {
	cancel        context.CancelFunc
	ctx           context.Context
	captureCancel context.CancelFunc

	req       CallRequest
	id        string
	startTime time.Time

	// Guarded by ConsultationManager.mu.
	state        domain.CallState
	audio        ports.AudioSession
	recording    bool
	muted        bool
	speakerOn    bool
	duration     int
	message      string
	summary      string
	endSegmentID string

	transcript   *transcript
	transcribing atomic.Int32
	inflight     sync.WaitGroup

	stopTicker  sync.Once
	tickerStop  chan struct{}
	stopCapture sync.Once
	captureDone chan struct{}
	summaryDone chan struct{}
}

func newActiveCall(ctx context.Context, cancel context.CancelFunc, id string, req CallRequest, start time.Time) *activeCall {
	done := make(chan struct{})
	close(done)
	return &activeCall{
		ctx:           ctx,
		cancel:        cancel,
		captureCancel: func() {},
		id:            id,
		req:           req,
		startTime:     start,
		speakerOn:     true,
		tickerStop:    make(chan struct{}),
		captureDone:   done,
		summaryDone:   make(chan struct{}),
	}
}

func (a *activeCall) active() bool {
	return a.state == domain.CallStateVoice || a.state == domain.CallStateTextOnly
}

func (a *activeCall) haltTicker() {
	a.stopTicker.Do(func() { close(a.tickerStop) })
}

// releaseDevice stops capture exactly once.
func (a *activeCall) releaseDevice(audio ports.AudioSession) error {
	var err error
	a.stopCapture.Do(func() {
		if audio != nil {
			err = audio.Stop()
		}
		a.captureCancel()
	})
	return err
}
