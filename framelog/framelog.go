package framelog

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/jehiah/go-strftime"
	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v4"

	"dbcgo/core"
)

// framelog is the live-decoding collaborator: it receives raw frame events
// over UDP, translates them into physical values through the loaded
// databases and appends one JSON line per frame to the logfile. Codec
// failures are per-frame; they never invalidate the databases.

var FrameLogLog *log.Entry

var logfile *os.File
var server *net.UDPConn

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FrameEvent is the msgpack wire shape of one captured frame.
type FrameEvent struct {
	ID   uint32 `msgpack:"id"`
	Data []byte `msgpack:"data"`
	Bus  string `msgpack:"bus"`
}

func StartFrameLog() {
	if core.Config.Framelog.Bind == "" {
		core.Config.Framelog.Bind = "0.0.0.0:7207"
	}

	if core.Config.Framelog.Output == "" {
		core.Config.Framelog.Output = "frames-%Y%m%d-%H%M%S.log"
	}

	createLog()

	FrameLogLog.Info("Opening UDP socket...")
	addr, err := net.ResolveUDPAddr("udp", core.Config.Framelog.Bind)
	if err != nil {
		FrameLogLog.Fatalf("Unable to open socket: %s", err)
	}

	server, err = net.ListenUDP("udp", addr)
	if err != nil {
		FrameLogLog.Fatalf("Unable to open socket: %s", err)
	}

	handleInterrupts()
	go listen()
}

func createLog() {
	var err error
	if logfile != nil {
		logfile.Close()
	}

	t := time.Now()
	logfile, err = os.OpenFile(strftime.Format(core.Config.Framelog.Output, t), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		FrameLogLog.Fatalf("failed to open logfile: %s", err)
		return
	}

	logfile.Truncate(0)
	logfile.Seek(0, 0)
}

func handleInterrupts() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		server.Close()
		logfile.Sync()
		logfile.Close()
	}()
}

func processFrame(data []byte, addr *net.UDPAddr) {
	var ev FrameEvent
	if err := msgpack.Unmarshal(data, &ev); err != nil {
		FrameLogLog.Warnf("failed to unmarshal frame event from client %s: %s", addr.IP, err)
		return
	}

	m, ok := core.MessageByID(ev.ID)
	if !ok {
		FrameLogLog.Warnf("frame with unknown message id %d from client %s", ev.ID, addr.IP)
		return
	}

	signals := make(map[string]float64)
	labels := make(map[string]string)
	for _, s := range m.Signals() {
		phys, err := s.Decode(ev.Data)
		if err != nil {
			// Buffer shape is wrong for the whole frame, not one signal.
			FrameLogLog.Warnf("failed to decode frame id %d: %s", ev.ID, err)
			return
		}

		signals[s.Name()] = phys
		if raw, err := s.DecodeRaw(ev.Data); err == nil {
			if label, ok := s.Label(raw); ok {
				labels[s.Name()] = label
			}
		}
	}

	out := map[string]interface{}{
		"_time":   strftime.Format("%Y-%m-%d %H:%M:%S%z", time.Now()),
		"id":      ev.ID,
		"message": m.Name(),
		"signals": signals,
	}
	if ev.Bus != "" {
		out["bus"] = ev.Bus
	}
	if len(labels) > 0 {
		out["labels"] = labels
	}

	final, _ := json.Marshal(out)
	if _, err := logfile.WriteString(string(final) + "\n"); err != nil {
		FrameLogLog.Fatalf("failed to write to logfile: %s", err)
	}
	logfile.Sync()
}

func listen() {
	buff := make([]byte, 1024)
	for {
		n, addr, err := server.ReadFromUDP(buff)
		if err != nil {
			// If the socket is unreadable the daemon is probably closed
			break
		}

		processFrame(buff[0:n], addr)
	}
}

func init() {
	FrameLogLog = log.WithFields(log.Fields{
		"name": "FrameLog",
	})
}
