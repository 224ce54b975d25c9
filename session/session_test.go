package session_test

import (
	"time"

	"github.com/golang/mock/gomock"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/session"
	"github.com/saitolume/hqmcast/transport"
	"github.com/saitolume/hqmcast/transport/transporttest"
)

var _ = Describe("Session", func() {
	var (
		mockCtrl *gomock.Controller
		tr       *transporttest.MockTransport
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tr = transporttest.NewMockTransport(mockCtrl)
		tr.EXPECT().LossDetectionExpiry().Return(time.Time{}).AnyTimes()
		tr.EXPECT().AckDelayExpiry().Return(time.Time{}).AnyTimes()
		tr.EXPECT().AcceptStream().Return(transport.StreamID(0), false).AnyTimes()
		tr.EXPECT().PollStreamData().Return(nil).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("unicast client", func() {
		It("registers stream 0 on construction", func() {
			s, err := session.ClientNew(tr, session.ModeUnicast, session.NewSettings(), session.Callbacks{})
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
			js, err := s.DebugJSON()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(js)).To(ContainSubstring(`"open_streams":1`))
		})

		It("opens a bidi stream and queues a HEADERS frame on SubmitRequest", func() {
			s, err := session.ClientNew(tr, session.ModeUnicast, session.NewSettings(), session.Callbacks{})
			Expect(err).NotTo(HaveOccurred())

			tr.EXPECT().OpenBidiStream().Return(transport.StreamID(0), nil)
			tr.EXPECT().BytesInFlight().Return(uint64(0)).AnyTimes()
			tr.EXPECT().WriteStream(transport.StreamID(0), gomock.Any(), true).Return(10, 10, nil)

			fields := []headers.Field{{Name: ":method", Value: "GET"}, {Name: ":path", Value: "/"}}
			Expect(s.SubmitRequest(fields, nil, true, "req-1")).To(Succeed())
			Expect(s.Send()).To(Succeed())
		})
	})

	Context("send pipeline backpressure", func() {
		It("returns SESSION_BLOCKED once bytes in flight exceed the budget", func() {
			s, err := session.ClientNew(tr, session.ModeUnicast, session.NewSettings(), session.Callbacks{})
			Expect(err).NotTo(HaveOccurred())

			tr.EXPECT().OpenBidiStream().Return(transport.StreamID(0), nil)
			tr.EXPECT().BytesInFlight().Return(uint64(session.MaxBytesInFlight + 1)).AnyTimes()

			fields := []headers.Field{{Name: ":method", Value: "GET"}, {Name: ":path", Value: "/"}}
			Expect(s.SubmitRequest(fields, nil, true, "req-1")).To(Succeed())

			err = s.Send()
			Expect(err).To(HaveOccurred())
			sendErr, ok := err.(*herr.Error)
			Expect(ok).To(BeTrue())
			Expect(sendErr.Code).To(Equal(herr.SessionBlocked))
		})
	})

	Context("push promises", func() {
		It("enforces the max push promise ceiling", func() {
			s, err := session.ServerNew(tr, session.ModeUnicast, session.NewSettings().MaxPushPromise(0), session.Callbacks{})
			Expect(err).NotTo(HaveOccurred())

			_, err = s.SubmitPushPromise("init", nil, "promised")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("close", func() {
		It("asks the transport for CONNECTION_CLOSE in unicast mode", func() {
			s, err := session.ServerNew(tr, session.ModeUnicast, session.NewSettings(), session.Callbacks{})
			Expect(err).NotTo(HaveOccurred())

			tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil)
			Expect(s.Close(herr.OK)).To(Succeed())
		})
	})
})
