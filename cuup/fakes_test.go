// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/nextmn/cu-up-bearers/security"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.events...)
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// recordingTEIDPool logs every allocation and release of a real pool.
type recordingTEIDPool struct {
	*gtpu.TEIDPool
	log *eventLog
}

func (p *recordingTEIDPool) RequestTEID() (api.TEID, error) {
	teid, err := p.TEIDPool.RequestTEID()
	if err == nil {
		p.log.add("%s-request:%d", p.Name(), teid)
	}
	return teid, err
}

func (p *recordingTEIDPool) ReleaseTEID(teid api.TEID) bool {
	if !p.TEIDPool.ReleaseTEID(teid) {
		p.log.add("%s-release-failed:%d", p.Name(), teid)
		return false
	}
	p.log.add("%s-release:%d", p.Name(), teid)
	return true
}

type fakeQueue struct {
	stopped bool
}

func (q *fakeQueue) Len() int { return 0 }
func (q *fakeQueue) Stop()    { q.stopped = true }

type fakeDemux struct {
	tunnels map[api.TEID]api.GTPUTunnelRxHandler
	queues  map[api.TEID]*fakeQueue
	created []api.TEID
	removed []api.TEID
	fail    bool
}

func newFakeDemux() *fakeDemux {
	return &fakeDemux{
		tunnels: make(map[api.TEID]api.GTPUTunnelRxHandler),
		queues:  make(map[api.TEID]*fakeQueue),
	}
}

func (d *fakeDemux) AddTunnel(teid api.TEID, exec api.TaskExecutorInterface, handler api.GTPUTunnelRxHandler) (api.DispatchQueueInterface, error) {
	if d.fail {
		return nil, fmt.Errorf("demux failure")
	}
	if _, exists := d.tunnels[teid]; exists {
		return nil, gtpu.ErrDuplicateTEID
	}
	d.tunnels[teid] = handler
	d.queues[teid] = &fakeQueue{}
	d.created = append(d.created, teid)
	return d.queues[teid], nil
}

func (d *fakeDemux) RemoveTunnel(teid api.TEID) bool {
	if _, exists := d.tunnels[teid]; !exists {
		return false
	}
	delete(d.tunnels, teid)
	d.removed = append(d.removed, teid)
	return true
}

type sentPDU struct {
	pdu []byte
	dst netip.AddrPort
}

type fakeNGUGateway struct {
	addr netip.Addr
	err  error
	sent []sentPDU
}

func (g *fakeNGUGateway) BindAddress() (netip.Addr, error) {
	return g.addr, g.err
}

func (g *fakeNGUGateway) OnNewPDU(pdu []byte, dst netip.AddrPort) {
	g.sent = append(g.sent, sentPDU{pdu: pdu, dst: dst})
}

type fakeNGUSessions struct {
	gw *fakeNGUGateway
}

func (s *fakeNGUSessions) NextNGUGateway() api.NGUGatewayInterface {
	return s.gw
}

type fakeGWBearer struct {
	gw      *fakeF1UGateway
	teid    api.TEID
	rx      api.F1UGatewayRxNotifier
	tx      [][]byte
	stopped bool
}

func (b *fakeGWBearer) OnNewPDU(pdu []byte) {
	b.tx = append(b.tx, pdu)
}

func (b *fakeGWBearer) BindAddress() (netip.Addr, error) {
	return b.gw.addr, b.gw.bindErr
}

func (b *fakeGWBearer) Stop() {
	if b.stopped {
		return
	}
	b.stopped = true
	b.gw.removed = append(b.gw.removed, b.teid)
	b.gw.log.add("gw-stop:%d", b.teid)
	if b.gw.onStop != nil {
		b.gw.onStop(b)
	}
}

type attachedTEID struct {
	ul api.UPTransportLayerInfo
	dl api.UPTransportLayerInfo
}

type fakeF1UGateway struct {
	addr      netip.Addr
	log       *eventLog
	bearers   map[api.TEID]*fakeGWBearer
	created   []api.TEID
	removed   []api.TEID
	attached  []attachedTEID
	createErr error
	bindErr   error
	attachErr error
	onStop    func(*fakeGWBearer)
}

func (g *fakeF1UGateway) CreateCUBearer(ue api.UEIndex, drb api.DRBID, fiveQI api.FiveQI, cfg api.F1UConfig, ulTEID api.TEID, rx api.F1UGatewayRxNotifier, ulExec api.TaskExecutorInterface) (api.F1UGatewayBearerInterface, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	b := &fakeGWBearer{gw: g, teid: ulTEID, rx: rx}
	g.bearers[ulTEID] = b
	g.created = append(g.created, ulTEID)
	g.log.add("gw-create:%d", ulTEID)
	return b, nil
}

func (g *fakeF1UGateway) AttachDLTEID(ul api.UPTransportLayerInfo, dl api.UPTransportLayerInfo) error {
	if g.attachErr != nil {
		return g.attachErr
	}
	g.attached = append(g.attached, attachedTEID{ul: ul, dl: dl})
	return nil
}

type fakeSDAPRx struct {
	sdap *fakeSDAP
	drb  api.DRBID
}

func (h *fakeSDAPRx) HandlePDU(pdu []byte) {
	for qfi, drb := range h.sdap.mappings {
		if drb == h.drb {
			h.sdap.msg.RxSDU.OnNewSDU(pdu, qfi)
			return
		}
	}
}

type fakeSDAP struct {
	msg       api.SDAPEntityCreationMessage
	mappings  map[api.QoSFlowID]api.DRBID
	notifiers map[api.QoSFlowID]api.SDAPTxPDUNotifier
	stopped   bool
}

func (s *fakeSDAP) HandleSDU(sdu []byte, qfi api.QoSFlowID) {
	if n, ok := s.notifiers[qfi]; ok {
		n.OnNewPDU(sdu)
	}
}

func (s *fakeSDAP) TxSDUHandler() api.SDAPTxSDUHandler {
	return s
}

func (s *fakeSDAP) RxPDUHandler(drb api.DRBID) (api.SDAPRxPDUHandler, error) {
	return &fakeSDAPRx{sdap: s, drb: drb}, nil
}

func (s *fakeSDAP) AddMapping(qfi api.QoSFlowID, drb api.DRBID, cfg api.SDAPConfig, notifier api.SDAPTxPDUNotifier) error {
	if _, exists := s.mappings[qfi]; exists {
		return fmt.Errorf("QFI %d already mapped", qfi)
	}
	s.mappings[qfi] = drb
	s.notifiers[qfi] = notifier
	return nil
}

func (s *fakeSDAP) IsMapped(qfi api.QoSFlowID) bool {
	_, exists := s.mappings[qfi]
	return exists
}

func (s *fakeSDAP) RemoveMapping(drb api.DRBID) {
	for qfi, d := range s.mappings {
		if d == drb {
			delete(s.mappings, qfi)
			delete(s.notifiers, qfi)
		}
	}
}

func (s *fakeSDAP) Stop() {
	s.stopped = true
}

type fakePDCPControl struct {
	sec          security.AS128Config
	integrity    security.IntegrityEnabled
	ciphering    security.CipheringEnabled
	configured   int
	reestablish  int
	stoppedProc  int
	restarted    int
	cryptoDone   chan struct{}
	cryptoCalled func()
}

func (c *fakePDCPControl) ConfigureSecurity(sec security.AS128Config, integrity security.IntegrityEnabled, ciphering security.CipheringEnabled) {
	c.sec, c.integrity, c.ciphering = sec, integrity, ciphering
	c.configured++
}

func (c *fakePDCPControl) Reestablish(sec security.AS128Config) {
	c.sec = sec
	c.reestablish++
}

func (c *fakePDCPControl) NotifyPDUProcessingStopped() {
	c.stoppedProc++
}

func (c *fakePDCPControl) RestartPDUProcessing() {
	c.restarted++
}

func (c *fakePDCPControl) CryptoDone() <-chan struct{} {
	if c.cryptoCalled != nil {
		c.cryptoCalled()
	}
	return c.cryptoDone
}

type fakePDCPTxLower struct {
	desiredBufferSize uint32
	delivered         uint32
}

func (l *fakePDCPTxLower) HandleTransmitNotification(highestSN uint32) {}

func (l *fakePDCPTxLower) HandleDeliveryNotification(highestSN uint32) {
	l.delivered = highestSN
}

func (l *fakePDCPTxLower) HandleDesiredBufferSizeNotification(bytes uint32) {
	l.desiredBufferSize = bytes
}

type fakePDCP struct {
	msg     api.PDCPEntityCreationMessage
	tx      fakePDCPControl
	rx      fakePDCPControl
	txLower fakePDCPTxLower
	stopped bool
}

type fakePDCPTxData struct{ p *fakePDCP }

func (d fakePDCPTxData) HandleSDU(sdu []byte) { d.p.msg.TxLower.OnNewPDU(sdu, false) }

type fakePDCPRxLower struct{ p *fakePDCP }

func (d fakePDCPRxLower) HandlePDU(pdu []byte) { d.p.msg.RxUpperData.OnNewSDU(pdu) }

func (p *fakePDCP) TxUpperData() api.PDCPTxUpperDataInterface       { return fakePDCPTxData{p} }
func (p *fakePDCP) TxUpperControl() api.PDCPTxUpperControlInterface { return &p.tx }
func (p *fakePDCP) TxLower() api.PDCPTxLowerInterface               { return &p.txLower }
func (p *fakePDCP) RxLower() api.PDCPRxLowerInterface               { return fakePDCPRxLower{p} }
func (p *fakePDCP) RxUpperControl() api.PDCPRxUpperControlInterface { return &p.rx }
func (p *fakePDCP) Stop()                                           { p.stopped = true }

type fakeF1U struct {
	msg     api.F1UBearerCreationMessage
	log     *eventLog
	stopped bool
}

type fakeF1UTx struct{ b *fakeF1U }

func (t fakeF1UTx) HandleSDU(sdu []byte, isRetx bool) { t.b.msg.TxPDU.OnNewPDU(sdu) }
func (t fakeF1UTx) DiscardSDU(sn uint32)              {}

type fakeF1URx struct{ b *fakeF1U }

func (r fakeF1URx) HandlePDU(pdu []byte) { r.b.msg.RxSDU.OnNewSDU(pdu) }

func (b *fakeF1U) TxSDUHandler() api.F1UTxSDUHandler { return fakeF1UTx{b} }
func (b *fakeF1U) RxPDUHandler() api.F1URxPDUHandler { return fakeF1URx{b} }

func (b *fakeF1U) Stop() {
	b.stopped = true
	b.log.add("f1u-stop:%d", b.msg.ULTunnel.TEID)
}

type fakeGTPU struct {
	msg     api.GTPUTunnelCreationMessage
	dlQFI   api.QoSFlowID
	stopped bool
}

type fakeGTPURx struct{ t *fakeGTPU }

func (r fakeGTPURx) HandlePDU(pdu []byte, src net.Addr) { r.t.msg.RxLower.OnNewSDU(pdu, r.t.dlQFI) }

type fakeGTPUTx struct{ t *fakeGTPU }

func (tx fakeGTPUTx) HandleSDU(sdu []byte, qfi api.QoSFlowID) {
	tx.t.msg.TxLower.OnNewPDU(sdu, netip.AddrPortFrom(tx.t.msg.Peer.Address, tx.t.msg.PeerPort))
}

func (t *fakeGTPU) RxHandler() api.GTPUTunnelRxHandler       { return fakeGTPURx{t} }
func (t *fakeGTPU) TxUpper() api.GTPUTunnelTxUpperInterface { return fakeGTPUTx{t} }
func (t *fakeGTPU) Stop()                                    { t.stopped = true }

type fakeFactory struct {
	log      *eventLog
	sdaps    []*fakeSDAP
	pdcps    []*fakePDCP
	f1us     []*fakeF1U
	gtpus    []*fakeGTPU
	failSDAP bool
	failPDCP bool
	failF1U  bool
	failGTPU bool
}

func (f *fakeFactory) CreateSDAPEntity(msg api.SDAPEntityCreationMessage) (api.SDAPEntityInterface, error) {
	if f.failSDAP {
		return nil, fmt.Errorf("sdap failure")
	}
	s := &fakeSDAP{
		msg:       msg,
		mappings:  make(map[api.QoSFlowID]api.DRBID),
		notifiers: make(map[api.QoSFlowID]api.SDAPTxPDUNotifier),
	}
	f.sdaps = append(f.sdaps, s)
	return s, nil
}

func (f *fakeFactory) CreatePDCPEntity(msg api.PDCPEntityCreationMessage) (api.PDCPEntityInterface, error) {
	if f.failPDCP {
		return nil, fmt.Errorf("pdcp failure")
	}
	done := make(chan struct{})
	close(done)
	p := &fakePDCP{msg: msg}
	p.rx.cryptoDone = done
	p.tx.cryptoDone = done
	f.pdcps = append(f.pdcps, p)
	return p, nil
}

func (f *fakeFactory) CreateF1UBearer(msg api.F1UBearerCreationMessage) (api.F1UBearerInterface, error) {
	if f.failF1U {
		return nil, fmt.Errorf("f1u failure")
	}
	b := &fakeF1U{msg: msg, log: f.log}
	f.f1us = append(f.f1us, b)
	f.log.add("f1u-create:%d", msg.ULTunnel.TEID)
	return b, nil
}

func (f *fakeFactory) CreateGTPUTunnel(msg api.GTPUTunnelCreationMessage) (api.GTPUTunnelNGUInterface, error) {
	if f.failGTPU {
		return nil, fmt.Errorf("gtpu failure")
	}
	t := &fakeGTPU{msg: msg, dlQFI: 8}
	f.gtpus = append(f.gtpus, t)
	return t, nil
}
