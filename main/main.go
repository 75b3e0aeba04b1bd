package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"
	"github.com/davecgh/go-spew/spew"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
	"github.com/vmihailenco/msgpack/v4"

	"dbcgo/core"
	"dbcgo/dbc/db"
	"dbcgo/framelog"
)

var mainLog *log.Entry

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	log.SetHandler(core.Log)
	log.SetLevel(log.DebugLevel)
	mainLog = log.WithFields(log.Fields{
		"name": "Main",
	})
}

func main() {
	pflag.Usage = func() {
		fmt.Printf(
			`Usage:    dbcd [options]... [CONFIG_FILE]

      dbcd loads the configured CAN databases and serves the frame log.
      By default dbcd looks for a configuration file in the current
      working directory as dbcd.yml.  A different config file path
      can be specified as a positional argument.

      -h, --help      Print this help dialog.
      -v, --version   Print version information.
      -L, --log       Specify a file to write log messages to.
      -l, --loglevel  Specify the minimum log level that should be logged;
                        Error and Fatal levels will always be logged.
      -d, --dump      Dump the resolved databases to stdout (json|msgpack).
      -f, --frame     Decode one frame given as ID#HEXBYTES and exit
                        (ID decimal or 0x-prefixed hex).
          --debug     Dump the raw parse trees and exit.
`)
		os.Exit(1)
	}

	logfilePtr := pflag.StringP("log", "L", "", "Specify the file to write log messages to.")
	loglevelPtr := pflag.StringP("loglevel", "l", "info", "Specify minimum log level that should be logged.")
	versionPtr := pflag.BoolP("version", "v", false, "Show the application version.")
	helpPtr := pflag.BoolP("help", "h", false, "Show the application usage.")
	dumpPtr := pflag.StringP("dump", "d", "", "Dump the resolved databases to stdout (json|msgpack).")
	framePtr := pflag.StringP("frame", "f", "", "Decode one frame given as ID#HEXBYTES and exit.")
	debugPtr := pflag.Bool("debug", false, "Dump the raw parse trees and exit.")

	pflag.Parse()

	if *helpPtr {
		pflag.Usage()
		os.Exit(1)
	}
	if *versionPtr {
		fmt.Printf(`
A CAN database (DBC) parser and signal codec in Golang

Revision: INDEV`)
		os.Exit(1)
	}
	if *loglevelPtr != "" {
		loglevelChoices := map[string]log.Level{"info": log.InfoLevel, "warning": log.WarnLevel, "error": log.ErrorLevel, "fatal": log.FatalLevel, "debug": log.DebugLevel}
		if choice, validChoice := loglevelChoices[*loglevelPtr]; !validChoice {
			mainLog.Fatal(fmt.Sprintf("Unknown log-level \"%s\".", *loglevelPtr))
			pflag.Usage()
			os.Exit(1)
		} else {
			log.SetLevel(choice)
		}
	}
	if *logfilePtr != "" {
		logfile, err := os.OpenFile(*logfilePtr, os.O_RDWR|os.O_CREATE, 0600)
		if err != nil {
			mainLog.Fatal(fmt.Sprintf("Failed to open log file \"%s\".", *logfilePtr))
			os.Exit(1)
		}
		logfile.Truncate(0)
		logfile.Seek(0, 0)

		defer logfile.Sync()
		defer logfile.Close()

		log.SetHandler(multi.New(core.Log, core.NewLogger(logfile)))
	}

	var configPath, configName string
	args := pflag.Args()
	if len(args) > 0 {
		configName = filepath.Base(args[0])
		configName = strings.TrimSuffix(configName, path.Ext(configName))
		configPath = filepath.Dir(args[0])
	} else {
		configName = "dbcd"
		configPath = "."
	}

	if err := core.LoadConfig(configPath, configName); err != nil {
		mainLog.Fatal(err.Error())
	}

	if err := core.LoadDatabases(); err != nil {
		mainLog.Fatal(err.Error())
	}

	if *debugPtr {
		spew.Dump(core.Trees)
		return
	}

	if *dumpPtr != "" {
		if err := dumpDatabases(*dumpPtr); err != nil {
			mainLog.Fatal(err.Error())
		}
		return
	}

	if *framePtr != "" {
		if err := decodeFrame(*framePtr); err != nil {
			mainLog.Fatal(err.Error())
		}
		return
	}

	framelog.StartFrameLog()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	select {
	case sig := <-c:
		mainLog.Fatal(fmt.Sprintf("Got %s signal. Aborting...", sig))
		os.Exit(1)
	}
}

type signalDump struct {
	Name     string   `json:"name" msgpack:"name"`
	StartBit uint8    `json:"start_bit" msgpack:"start_bit"`
	Length   uint8    `json:"length" msgpack:"length"`
	Order    string   `json:"byte_order" msgpack:"byte_order"`
	Signed   bool     `json:"signed" msgpack:"signed"`
	Factor   float64  `json:"factor" msgpack:"factor"`
	Offset   float64  `json:"offset" msgpack:"offset"`
	Min      float64  `json:"min" msgpack:"min"`
	Max      float64  `json:"max" msgpack:"max"`
	Unit     string   `json:"unit,omitempty" msgpack:"unit"`
	Comment  string   `json:"comment,omitempty" msgpack:"comment"`
	Receives []string `json:"receivers,omitempty" msgpack:"receivers"`
}

type messageDump struct {
	ID          uint32       `json:"id" msgpack:"id"`
	Name        string       `json:"name" msgpack:"name"`
	Length      uint8        `json:"length" msgpack:"length"`
	Transmitter string       `json:"transmitter,omitempty" msgpack:"transmitter"`
	Comment     string       `json:"comment,omitempty" msgpack:"comment"`
	Signals     []signalDump `json:"signals" msgpack:"signals"`
}

type nodeDump struct {
	Name    string `json:"name" msgpack:"name"`
	Comment string `json:"comment,omitempty" msgpack:"comment"`
}

type databaseDump struct {
	Version  string        `json:"version,omitempty" msgpack:"version"`
	Nodes    []nodeDump    `json:"nodes" msgpack:"nodes"`
	Messages []messageDump `json:"messages" msgpack:"messages"`
}

func dumpDatabases(format string) error {
	var dumps []databaseDump
	for _, d := range core.Databases {
		dumps = append(dumps, buildDump(d))
	}

	switch format {
	case "json":
		out, err := json.MarshalIndent(dumps, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "msgpack":
		out, err := msgpack.Marshal(dumps)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
	default:
		return fmt.Errorf("unknown dump format %q (want json or msgpack)", format)
	}
	return nil
}

func buildDump(d *db.Database) databaseDump {
	dump := databaseDump{Version: d.Version()}
	for _, n := range d.Nodes() {
		dump.Nodes = append(dump.Nodes, nodeDump{Name: n.Name(), Comment: n.Comment()})
	}
	for _, m := range d.Messages() {
		md := messageDump{
			ID:      m.ID(),
			Name:    m.Name(),
			Length:  m.Length(),
			Comment: m.Comment(),
		}
		if tx := m.Transmitter(); tx != nil {
			md.Transmitter = tx.Name()
		}
		for _, s := range m.Signals() {
			sd := signalDump{
				Name:     s.Name(),
				StartBit: s.StartBit(),
				Length:   s.Length(),
				Order:    s.ByteOrder().String(),
				Signed:   s.Signed(),
				Factor:   s.Factor(),
				Offset:   s.Offset(),
				Min:      s.Min(),
				Max:      s.Max(),
				Unit:     s.Unit(),
				Comment:  s.Comment(),
			}
			for _, r := range s.Receivers() {
				sd.Receives = append(sd.Receives, r.Name())
			}
			md.Signals = append(md.Signals, sd)
		}
		dump.Messages = append(dump.Messages, md)
	}
	return dump
}

func decodeFrame(arg string) error {
	idStr, hexStr, found := strings.Cut(arg, "#")
	if !found {
		return fmt.Errorf("malformed frame %q (want ID#HEXBYTES)", arg)
	}
	id, err := strconv.ParseUint(idStr, 0, 32)
	if err != nil {
		return fmt.Errorf("malformed frame id %q: %v", idStr, err)
	}
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return fmt.Errorf("malformed frame payload %q: %v", hexStr, err)
	}

	m, ok := core.MessageByID(uint32(id))
	if !ok {
		return fmt.Errorf("no loaded database defines message id %d", id)
	}

	fmt.Printf("%s (id %d, %d bytes)\n", m.Name(), m.ID(), m.Length())
	for _, s := range m.Signals() {
		phys, err := s.Decode(data)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("  %-20s %v", s.Name(), phys)
		if s.Unit() != "" {
			line += " " + s.Unit()
		}
		if raw, err := s.DecodeRaw(data); err == nil {
			if label, ok := s.Label(raw); ok {
				line += fmt.Sprintf(" (%s)", label)
			}
		}
		fmt.Println(line)
	}
	return nil
}
