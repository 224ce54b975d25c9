// Package transporttest provides a gomock-based fake transport.Transport,
// hand-written in the shape mockgen would produce (one EXPECT-able method
// per interface method), since quic-go's own generated mocks
// (mockquic "github.com/lucas-clemente/quic-go/internal/mocks/quic", used
// directly by saitolume-quic-go/http3/client_test.go and server_test.go)
// live in quic-go's internal/ tree and cannot be imported from outside
// that module.
package transporttest

import (
	"time"

	"github.com/golang/mock/gomock"

	"github.com/saitolume/hqmcast/transport"
)

// MockTransport is a gomock-controlled fake of transport.Transport.
type MockTransport struct {
	ctrl     *gomock.Controller
	recorder *MockTransportRecorder
}

// MockTransportRecorder groups the EXPECT() builder methods.
type MockTransportRecorder struct {
	mock *MockTransport
}

// NewMockTransport constructs a MockTransport under ctrl, the same
// pairing convention every mockgen-generated type in the corpus uses
// (NewMock<Type>(ctrl *gomock.Controller) *Mock<Type>).
func NewMockTransport(ctrl *gomock.Controller) *MockTransport {
	m := &MockTransport{ctrl: ctrl}
	m.recorder = &MockTransportRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransport) EXPECT() *MockTransportRecorder {
	return m.recorder
}

func (m *MockTransport) ReadPacket(pkt []byte) error {
	ret := m.ctrl.Call(m, "ReadPacket", pkt)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockTransportRecorder) ReadPacket(pkt interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadPacket", nil, pkt)
}

func (m *MockTransport) WritePacket() ([]byte, bool, error) {
	ret := m.ctrl.Call(m, "WritePacket")
	pkt, _ := ret[0].([]byte)
	ok, _ := ret[1].(bool)
	err, _ := ret[2].(error)
	return pkt, ok, err
}

func (mr *MockTransportRecorder) WritePacket() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WritePacket", nil)
}

func (m *MockTransport) WriteStream(id transport.StreamID, data []byte, fin bool) (int, int, error) {
	ret := m.ctrl.Call(m, "WriteStream", id, data, fin)
	packetBytes, _ := ret[0].(int)
	consumed, _ := ret[1].(int)
	err, _ := ret[2].(error)
	return packetBytes, consumed, err
}

func (mr *MockTransportRecorder) WriteStream(id, data, fin interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteStream", nil, id, data, fin)
}

func (m *MockTransport) OpenBidiStream() (transport.StreamID, error) {
	ret := m.ctrl.Call(m, "OpenBidiStream")
	id, _ := ret[0].(transport.StreamID)
	err, _ := ret[1].(error)
	return id, err
}

func (mr *MockTransportRecorder) OpenBidiStream() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OpenBidiStream", nil)
}

func (m *MockTransport) OpenUniStream() (transport.StreamID, error) {
	ret := m.ctrl.Call(m, "OpenUniStream")
	id, _ := ret[0].(transport.StreamID)
	err, _ := ret[1].(error)
	return id, err
}

func (mr *MockTransportRecorder) OpenUniStream() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OpenUniStream", nil)
}

func (m *MockTransport) ShutdownStream(id transport.StreamID, code uint64) error {
	ret := m.ctrl.Call(m, "ShutdownStream", id, code)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockTransportRecorder) ShutdownStream(id, code interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ShutdownStream", nil, id, code)
}

func (m *MockTransport) BytesInFlight() uint64 {
	ret := m.ctrl.Call(m, "BytesInFlight")
	v, _ := ret[0].(uint64)
	return v
}

func (mr *MockTransportRecorder) BytesInFlight() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BytesInFlight", nil)
}

func (m *MockTransport) LossDetectionExpiry() time.Time {
	ret := m.ctrl.Call(m, "LossDetectionExpiry")
	v, _ := ret[0].(time.Time)
	return v
}

func (mr *MockTransportRecorder) LossDetectionExpiry() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LossDetectionExpiry", nil)
}

func (m *MockTransport) AckDelayExpiry() time.Time {
	ret := m.ctrl.Call(m, "AckDelayExpiry")
	v, _ := ret[0].(time.Time)
	return v
}

func (mr *MockTransportRecorder) AckDelayExpiry() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AckDelayExpiry", nil)
}

func (m *MockTransport) OnLossDetectionTimer() error {
	ret := m.ctrl.Call(m, "OnLossDetectionTimer")
	err, _ := ret[0].(error)
	return err
}

func (mr *MockTransportRecorder) OnLossDetectionTimer() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnLossDetectionTimer", nil)
}

func (m *MockTransport) GetTransportParams() ([]byte, error) {
	ret := m.ctrl.Call(m, "GetTransportParams")
	b, _ := ret[0].([]byte)
	err, _ := ret[1].(error)
	return b, err
}

func (mr *MockTransportRecorder) GetTransportParams() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetTransportParams", nil)
}

func (m *MockTransport) FeedTransportParams(b []byte) error {
	ret := m.ctrl.Call(m, "FeedTransportParams", b)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockTransportRecorder) FeedTransportParams(b interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FeedTransportParams", nil, b)
}

func (m *MockTransport) Close(code uint64, reason string) error {
	ret := m.ctrl.Call(m, "Close", code, reason)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockTransportRecorder) Close(code, reason interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", nil, code, reason)
}

func (m *MockTransport) PollStreamData() []transport.StreamEvent {
	ret := m.ctrl.Call(m, "PollStreamData")
	events, _ := ret[0].([]transport.StreamEvent)
	return events
}

func (mr *MockTransportRecorder) PollStreamData() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PollStreamData", nil)
}

func (m *MockTransport) AcceptStream() (transport.StreamID, bool) {
	ret := m.ctrl.Call(m, "AcceptStream")
	id, _ := ret[0].(transport.StreamID)
	ok, _ := ret[1].(bool)
	return id, ok
}

func (mr *MockTransportRecorder) AcceptStream() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AcceptStream", nil)
}

var _ transport.Transport = (*MockTransport)(nil)
