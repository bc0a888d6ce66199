package wire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/vantara-markets/matchcore/internal/book"
	"github.com/vantara-markets/matchcore/internal/contracts"
	"github.com/vantara-markets/matchcore/internal/matching"
	"github.com/vantara-markets/matchcore/internal/order"
	"github.com/vantara-markets/matchcore/internal/workerpool"
)

const (
	maxRecvSize        = 4 * 1024
	defaultConnTimeout = time.Second
)

var ErrClientGone = errors.New("wire: client connection gone")

// Engine is the subset of *matching.Engine the wire server depends on. A
// narrow interface keeps this package free of a direct dependency on the
// engine's concrete type.
type Engine interface {
	PlaceOrder(o order.Order) (matching.MatchingResult, error)
	CancelOrder(id string) (*order.Order, error)
	GetOrderBook(symbol string, depth int) (book.Snapshot, bool)
}

type clientSession struct {
	conn net.Conn
}

type clientMessage struct {
	clientAddress string
	msgType       MessageType
	body          []byte
}

// Server is the TCP front door: it frames/deframes wire messages, calls
// into Engine, and writes back execution or error reports.
type Server struct {
	address string
	port    int
	engine  Engine
	sink    contracts.TradeSink
	pool    *workerpool.Pool

	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]clientSession

	inbox chan clientMessage
}

func New(address string, port int, engine Engine, sink contracts.TradeSink, workers int) *Server {
	return &Server{
		address:  address,
		port:     port,
		engine:   engine,
		sink:     sink,
		pool:     workerpool.New(workers),
		sessions: make(map[string]clientSession),
		inbox:    make(chan clientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("wire server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run listens for connections until ctx is cancelled or Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("wire: unable to start listener")
		return err
	}
	// Accept does not observe ctx, so the listener is closed once ctx is
	// done (the deferred Shutdown cancels it on every return), which
	// unblocks the accept loop below.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("wire: unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("wire server listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error().Err(err).Msg("wire: error accepting client")
				continue
			}
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.inbox:
			if err := s.handleMessage(msg); err != nil {
				log.Error().Err(err).Str("clientAddress", msg.clientAddress).Msg("wire: error handling message")
				s.reportError(msg.clientAddress, err)
			}
		}
	}
}

func (s *Server) handleMessage(msg clientMessage) error {
	switch msg.msgType {
	case NewOrder:
		req, err := DecodeNewOrder(msg.body)
		if err != nil {
			return err
		}
		o := order.Order{
			ID:     uuid.New().String(),
			UserID: req.Owner,
			Symbol: req.Symbol,
			Side:   req.Side,
			Kind:   req.Kind,
			Price:  req.Price,
			Amount: req.Amount,
		}
		result, err := s.engine.PlaceOrder(o)
		if err != nil {
			return err
		}
		for _, tr := range result.Trades {
			if s.sink != nil {
				s.sink.Submit(tr)
			}
			s.reportTrade(msg.clientAddress, tr, o.Side)
		}
		return nil

	case CancelOrder:
		req, err := DecodeCancelOrder(msg.body)
		if err != nil {
			return err
		}
		_, err = s.engine.CancelOrder(req.OrderID)
		return err

	case SnapshotRequest:
		symbol, err := DecodeSnapshotRequest(msg.body)
		if err != nil {
			return err
		}
		snap, ok := s.engine.GetOrderBook(symbol, 0)
		if !ok {
			return contracts.NotFoundf("no book for symbol %q", symbol)
		}
		return s.reportSnapshot(msg.clientAddress, snap)

	default:
		return fmt.Errorf("%w: %d", ErrInvalidMessageType, msg.msgType)
	}
}

func (s *Server) reportTrade(clientAddress string, t order.Trade, takerSide order.Side) error {
	report := ExecutionReportMsg{
		Symbol:       t.Symbol,
		Side:         takerSide,
		Price:        t.Price,
		Amount:       t.Amount,
		Counterparty: t.MakerOrderID,
		OrderID:      t.TakerOrderID,
	}
	return s.write(clientAddress, EncodeExecutionReport(report))
}

func (s *Server) reportSnapshot(clientAddress string, snap book.Snapshot) error {
	// Encoded as a report-shaped payload carrying a human-readable dump;
	// a richer structured encoding belongs to a higher RPC layer, not
	// this core.
	body := fmt.Sprintf("symbol=%s bids=%d asks=%d", snap.Symbol, len(snap.Bids), len(snap.Asks))
	out := []byte{byte(SnapshotReport)}
	out = append(out, writeLenPrefixed(body)...)
	return s.write(clientAddress, out)
}

func (s *Server) reportError(clientAddress string, err error) {
	if writeErr := s.write(clientAddress, EncodeErrorReport(err)); writeErr != nil {
		log.Error().Err(writeErr).Str("clientAddress", clientAddress).Msg("wire: failed to report error to client")
	}
}

func (s *Server) write(clientAddress string, payload []byte) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	session, ok := s.sessions[clientAddress]
	if !ok {
		return ErrClientGone
	}
	if _, err := session.conn.Write(payload); err != nil {
		delete(s.sessions, clientAddress)
		return fmt.Errorf("wire: write failed: %w", err)
	}
	return nil
}

// handleConnection reads one message off conn, forwards it to the session
// handler, and re-queues the connection for its next message.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("wire: unexpected task type %T", task)
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Msg("wire: failed setting connection deadline")
		s.closeSession(conn)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
	}

	buffer := make([]byte, maxRecvSize)
	n, err := conn.Read(buffer)
	if err != nil {
		s.closeSession(conn)
		return nil
	}

	typ, body, err := DecodeMessage(buffer[:n])
	if err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("wire: error parsing message")
		s.closeSession(conn)
		return nil
	}

	s.inbox <- clientMessage{
		clientAddress: conn.RemoteAddr().String(),
		msgType:       typ,
		body:          body,
	}
	s.pool.AddTask(conn)
	return nil
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = clientSession{conn: conn}
}

func (s *Server) closeSession(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	s.sessionsMu.Lock()
	delete(s.sessions, addr)
	s.sessionsMu.Unlock()
	if err := conn.Close(); err != nil {
		log.Debug().Err(err).Str("address", addr).Msg("wire: error closing connection")
	}
}
