package hierarchytesting

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/datatrails/go-datatrails-common/azbus"
	"github.com/opentracing/opentracing-go"
)

// TestNotifySink satisfies the azbus sender surface and captures every
// message sent through it, so tests can decode exactly what a notifier
// published. Set SendErr to exercise delivery failure handling.
type TestNotifySink struct {
	Sent        [][]byte
	SendErr     error
	MethodCalls map[string]int
}

func (s *TestNotifySink) IncMethodCall(name string) int {
	if s.MethodCalls == nil {
		s.MethodCalls = make(map[string]int)
	}
	s.MethodCalls[name]++
	return s.MethodCalls[name]
}

func (s *TestNotifySink) MethodCallCount(name string) int {
	return s.MethodCalls[name]
}

func (s *TestNotifySink) Reset() {
	s.MethodCalls = nil
	s.Sent = nil
}

func (s *TestNotifySink) Send(ctx context.Context, msg []byte, opts ...azbus.OutMessageOption) error {
	s.IncMethodCall("Send")
	if s.SendErr != nil {
		return s.SendErr
	}
	s.Sent = append(s.Sent, append([]byte(nil), msg...))
	return nil
}

func (s *TestNotifySink) SendMsg(ctx context.Context, msg azbus.OutMessage, opts ...azbus.OutMessageOption) error {
	s.IncMethodCall("SendMsg")
	return s.SendErr
}

func (s *TestNotifySink) Open() error                 { return nil }
func (s *TestNotifySink) Close(context.Context)       {}
func (s *TestNotifySink) String() string              { return "testNotifySink" }
func (s *TestNotifySink) GetAZClient() azbus.AZClient { return azbus.AZClient{} }

func (*TestNotifySink) UpdateSendingMesssageForSpan(
	ctx context.Context, message *azservicebus.Message, span opentracing.Span) {
}
