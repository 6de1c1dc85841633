package exporters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
)

type delivered struct {
	platform string
	text     string
	filename string
	charset  string
}

type recordingDeliverer struct {
	mu    sync.Mutex
	calls []delivered
	err   error
}

func (d *recordingDeliverer) Deliver(_ context.Context, platform delivery.Platform, text, filename, charset string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := ""
	if platform != nil {
		name = platform.Name()
	}
	d.calls = append(d.calls, delivered{platform: name, text: text, filename: filename, charset: charset})
	return d.err
}

type namedPlatform string

func (p namedPlatform) Name() string { return string(p) }

type recordingIndicator struct {
	mu     sync.Mutex
	events []bool
}

func (r *recordingIndicator) SetLoading(loading bool) {
	r.mu.Lock()
	r.events = append(r.events, loading)
	r.mu.Unlock()
}

type outcomeCollector struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *outcomeCollector) Notify(_ context.Context, o Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
}

func peopleDataset() csvbuild.Dataset {
	return csvbuild.NewDataset(
		csvbuild.Fields(csvbuild.Field{Key: "a", Value: 1}, csvbuild.Field{Key: "b", Value: "x"}),
		csvbuild.Fields(csvbuild.Field{Key: "a", Value: 2}, csvbuild.Field{Key: "b", Value: "y,z"}),
	)
}

func TestRequestExport_Success(t *testing.T) {
	deliverer := &recordingDeliverer{}
	collector := &outcomeCollector{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer, WithNotifiers(collector))

	outcome := o.RequestExport(context.Background(), Request{
		Data:     peopleDataset(),
		Options:  csvbuild.Options{Header: true},
		Filename: "people.csv",
		Platform: namedPlatform("browser"),
	})

	require.NoError(t, outcome.Err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, MessageSuccess, outcome.Message)
	assert.Equal(t, []State{StateIdle, StateBuilding, StateBuilt, StateExporting, StateDone}, outcome.States)
	assert.Equal(t, StateDone, outcome.Final())
	assert.Equal(t, 2, outcome.Rows)
	assert.Equal(t, "browser", outcome.Platform)

	want := "a,b\r\n1,x\r\n2,\"y,z\"\r\n"
	require.Len(t, deliverer.calls, 1)
	assert.Equal(t, delivered{platform: "browser", text: want, filename: "people.csv"}, deliverer.calls[0])
	assert.Equal(t, len(want), outcome.Bytes)

	payload, ok := o.Payload()
	assert.True(t, ok)
	assert.Equal(t, want, payload)

	require.Len(t, collector.outcomes, 1)
	assert.Equal(t, StatusSuccess, collector.outcomes[0].Status)
}

func TestRequestExport_DefaultsFilename(t *testing.T) {
	deliverer := &recordingDeliverer{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer)

	outcome := o.RequestExport(context.Background(), Request{Data: peopleDataset()})

	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, "download.csv", outcome.Filename)
	require.Len(t, deliverer.calls, 1)
	assert.Equal(t, "download.csv", deliverer.calls[0].filename)
}

func TestRequestExport_PassesCharset(t *testing.T) {
	deliverer := &recordingDeliverer{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer)

	o.RequestExport(context.Background(), Request{
		Data:    peopleDataset(),
		Options: csvbuild.Options{Charset: "windows-1252"},
	})

	require.Len(t, deliverer.calls, 1)
	assert.Equal(t, "windows-1252", deliverer.calls[0].charset)
}

func TestRequestExport_Declined(t *testing.T) {
	deliverer := &recordingDeliverer{}
	collector := &outcomeCollector{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer, WithNotifiers(collector))

	outcome := o.RequestExport(context.Background(), Request{Data: csvbuild.Declined})

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, MessageSkipped, outcome.Message)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, []State{StateIdle, StateBuilding, StateSkipped}, outcome.States)
	assert.Empty(t, deliverer.calls)

	_, ok := o.Payload()
	assert.False(t, ok)
	require.Len(t, collector.outcomes, 1)
	assert.Equal(t, StatusSkipped, collector.outcomes[0].Status)
}

func TestRequestExport_SkipDoesNotLeakIntoNextRequest(t *testing.T) {
	deliverer := &recordingDeliverer{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer)

	first := o.RequestExport(context.Background(), Request{Data: csvbuild.Declined})
	second := o.RequestExport(context.Background(), Request{Data: peopleDataset()})

	assert.Equal(t, StatusSkipped, first.Status)
	assert.Equal(t, StatusSuccess, second.Status)
	assert.Len(t, deliverer.calls, 1)
}

func TestRequestExport_EmptyDatasetDelivers(t *testing.T) {
	deliverer := &recordingDeliverer{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer)

	outcome := o.RequestExport(context.Background(), Request{})

	assert.Equal(t, StatusSuccess, outcome.Status)
	require.Len(t, deliverer.calls, 1)
	assert.Equal(t, "", deliverer.calls[0].text)
}

func TestRequestExport_BuildFailures(t *testing.T) {
	loadErr := errors.New("backend down")

	tests := []struct {
		name    string
		request Request
		wantErr error
	}{
		{
			name: "invalid data",
			request: Request{Data: csvbuild.NewDataset(
				csvbuild.Fields(csvbuild.Field{Key: "a", Value: 1}),
				csvbuild.Values(1, 2),
			)},
			wantErr: csvbuild.ErrInvalidData,
		},
		{
			name: "invalid options",
			request: Request{
				Data:    peopleDataset(),
				Options: csvbuild.Options{FieldSep: ";", TxtDelim: ";"},
			},
			wantErr: csvbuild.ErrInvalidOptions,
		},
		{
			name: "source error",
			request: Request{Data: csvbuild.SourceFunc(func(context.Context) (csvbuild.Dataset, error) {
				return csvbuild.Dataset{}, loadErr
			})},
			wantErr: loadErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliverer := &recordingDeliverer{}
			collector := &outcomeCollector{}
			o := NewOrchestrator(csvbuild.NewBuilder(), deliverer, WithNotifiers(collector))

			outcome := o.RequestExport(context.Background(), tt.request)

			assert.Equal(t, StatusFailed, outcome.Status)
			assert.Equal(t, MessageFailed, outcome.Message)
			assert.ErrorIs(t, outcome.Err, tt.wantErr)
			assert.Equal(t, []State{StateIdle, StateBuilding, StateFailed}, outcome.States)
			assert.Empty(t, deliverer.calls)
			_, ok := o.Payload()
			assert.False(t, ok)
			require.Len(t, collector.outcomes, 1)
			assert.Equal(t, StatusFailed, collector.outcomes[0].Status)
		})
	}
}

func TestRequestExport_SourcePanicFails(t *testing.T) {
	o := NewOrchestrator(csvbuild.NewBuilder(), &recordingDeliverer{})

	outcome := o.RequestExport(context.Background(), Request{
		Data: csvbuild.SourceFunc(func(context.Context) (csvbuild.Dataset, error) {
			panic("boom")
		}),
	})

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorContains(t, outcome.Err, "boom")
}

func TestRequestExport_DeliveryFailure(t *testing.T) {
	deliverer := &recordingDeliverer{err: delivery.ErrUnsupportedPlatform}
	collector := &outcomeCollector{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer, WithNotifiers(collector))

	outcome := o.RequestExport(context.Background(), Request{Data: peopleDataset()})

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorIs(t, outcome.Err, delivery.ErrUnsupportedPlatform)
	assert.Equal(t, []State{StateIdle, StateBuilding, StateBuilt, StateExporting, StateFailed}, outcome.States)

	// The text was built and stored before delivery failed.
	_, ok := o.Payload()
	assert.True(t, ok)
	require.Len(t, collector.outcomes, 1)
	assert.Equal(t, MessageFailed, collector.outcomes[0].Message)
}

func TestRequestExport_UnsupportedPlatformWithRealTrigger(t *testing.T) {
	o := NewOrchestrator(csvbuild.NewBuilder(), delivery.NewTrigger())

	outcome := o.RequestExport(context.Background(), Request{
		Data:     peopleDataset(),
		Platform: namedPlatform("bare"),
	})

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorIs(t, outcome.Err, delivery.ErrUnsupportedPlatform)
}

func TestRequestExport_SavesThroughFileSaver(t *testing.T) {
	saver := delivery.NewFileSaver(t.TempDir())
	o := NewOrchestrator(csvbuild.NewBuilder(), delivery.NewTrigger())

	outcome := o.RequestExport(context.Background(), Request{
		Data:     peopleDataset(),
		Filename: "out.csv",
		Platform: saver,
	})

	require.NoError(t, outcome.Err)
	assert.Equal(t, "filesystem", outcome.Platform)
	assert.FileExists(t, saver.Path("out.csv"))
}

func TestRequestExport_TogglesLoadingAroundBuild(t *testing.T) {
	flag := NewLoadingFlag("")
	var seenDuringBuild string
	source := csvbuild.SourceFunc(func(context.Context) (csvbuild.Dataset, error) {
		seenDuringBuild = flag.Class()
		return peopleDataset(), nil
	})

	indicator := &recordingIndicator{}
	o := NewOrchestrator(csvbuild.NewBuilder(), &recordingDeliverer{},
		WithLoadingIndicator(multiIndicator{flag, indicator}))

	o.RequestExport(context.Background(), Request{Data: source})

	assert.Equal(t, DefaultLoadingClass, seenDuringBuild)
	assert.False(t, flag.IsLoading())
	assert.Equal(t, "", flag.Class())
	assert.Equal(t, []bool{true, false}, indicator.events)
}

func TestRequestExport_ClearsLoadingOnFailure(t *testing.T) {
	indicator := &recordingIndicator{}
	o := NewOrchestrator(csvbuild.NewBuilder(), &recordingDeliverer{}, WithLoadingIndicator(indicator))

	o.RequestExport(context.Background(), Request{Data: csvbuild.NewDataset(csvbuild.Values([]int{1}))})

	assert.Equal(t, []bool{true, false}, indicator.events)
}

type multiIndicator []LoadingIndicator

func (m multiIndicator) SetLoading(loading bool) {
	for _, i := range m {
		i.SetLoading(loading)
	}
}

func TestRequestExport_LastBuiltPayloadWins(t *testing.T) {
	deliverer := &recordingDeliverer{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer)

	gated := func(gate <-chan struct{}, value string) csvbuild.Source {
		return csvbuild.SourceFunc(func(context.Context) (csvbuild.Dataset, error) {
			<-gate
			return csvbuild.NewDataset(csvbuild.Values(value)), nil
		})
	}

	gateFirst := make(chan struct{})
	gateSecond := make(chan struct{})
	firstDone := make(chan Outcome, 1)
	secondDone := make(chan Outcome, 1)

	go func() { firstDone <- o.RequestExport(context.Background(), Request{Data: gated(gateFirst, "first")}) }()
	go func() { secondDone <- o.RequestExport(context.Background(), Request{Data: gated(gateSecond, "second")}) }()

	// The request issued second finishes building first.
	close(gateSecond)
	second := <-secondDone
	close(gateFirst)
	first := <-firstDone

	assert.Equal(t, StatusSuccess, first.Status)
	assert.Equal(t, StatusSuccess, second.Status)

	payload, ok := o.Payload()
	require.True(t, ok)
	assert.Equal(t, "first\r\n", payload)
	assert.Len(t, deliverer.calls, 2)
}

func TestRequestExport_OutcomeDescribesDeliveredText(t *testing.T) {
	deliverer := &recordingDeliverer{}
	collector := &outcomeCollector{}
	o := NewOrchestrator(csvbuild.NewBuilder(), deliverer, WithNotifiers(collector))

	const requests = 20
	var wg sync.WaitGroup
	for i := 1; i <= requests; i++ {
		records := make([]csvbuild.Record, i)
		for j := range records {
			records[j] = csvbuild.Values(j)
		}
		wg.Add(1)
		go func(i int, data csvbuild.Dataset) {
			defer wg.Done()
			o.RequestExport(context.Background(), Request{
				Data:     data,
				Filename: fmt.Sprintf("export-%d.csv", i),
			})
		}(i, csvbuild.NewDataset(records...))
	}
	wg.Wait()

	sent := make(map[string]string, requests)
	for _, call := range deliverer.calls {
		sent[call.filename] = call.text
	}

	require.Len(t, collector.outcomes, requests)
	for _, out := range collector.outcomes {
		text, ok := sent[out.Filename]
		require.True(t, ok, out.Filename)
		assert.Equal(t, len(text), out.Bytes, out.Filename)
		assert.Equal(t, strings.Count(text, "\r\n"), out.Rows, out.Filename)
	}
}

func TestState_Transitions(t *testing.T) {
	assert.True(t, StateIdle.CanTransition(StateBuilding))
	assert.True(t, StateBuilding.CanTransition(StateSkipped))
	assert.True(t, StateExporting.CanTransition(StateFailed))
	assert.False(t, StateIdle.CanTransition(StateDone))
	assert.False(t, StateSkipped.CanTransition(StateExporting))

	for _, s := range []State{StateSkipped, StateDone, StateFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StateIdle, StateBuilding, StateBuilt, StateExporting} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestNotifierFunc(t *testing.T) {
	var got Status
	o := NewOrchestrator(csvbuild.NewBuilder(), &recordingDeliverer{},
		WithNotifiers(NotifierFunc(func(_ context.Context, out Outcome) { got = out.Status }), LogNotifier{}))

	o.RequestExport(context.Background(), Request{Data: csvbuild.Declined})

	assert.Equal(t, StatusSkipped, got)
}
