// Package sh provides an interactive shell over a running bridge.
package sh

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/uartcomm/pkg/framework"
	"github.com/robotalks/uartcomm/pkg/uartcomm"
)

// Link is the bridge surface driven by the shell.
type Link interface {
	Start() error
	Stop() error
	Configure(baudRate int) error
	SendPacket(payload []byte) error
	Stats() uartcomm.Stats
	Status() uartcomm.StatusSource
}

// Motors sends direct controller commands.
type Motors interface {
	SetRPM(id uint8, rpm int32) error
	SetCurrent(id uint8, amps float32) error
	SetDuty(id uint8, duty float32) error
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Shell  *ishell.Shell
	Link   Link
	Motors Motors
	Clock  framework.TimeSource
}

const (
	shellKey = "$shell"
	prompt   = "uartcomm > "
)

var errUsage = errors.New("invalid arguments")

// New creates a new shell.
func New(link Link, motors Motors) *Shell {
	s := &Shell{
		Shell:  ishell.New(),
		Link:   link,
		Motors: motors,
		Clock:  framework.SystemClock,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Name implements framework.Named.
func (s *Shell) Name() string {
	return "shell"
}

// Run implements framework.Runnable. Leaving the shell ends the run.
func (s *Shell) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Shell.Close()
		case <-done:
		}
	}()
	s.Shell.Run()
	return nil
}

func (s *Shell) baud(args []string) (string, error) {
	if len(args) == 0 {
		return strconv.Itoa(s.Link.Stats().BaudRate), nil
	}
	rate, err := strconv.Atoi(args[0])
	if err != nil || rate <= 0 {
		return "", errUsage
	}
	if err := s.Link.Configure(rate); err != nil {
		return "", err
	}
	return "OK", nil
}

func (s *Shell) stats() string {
	st := s.Link.Stats()
	state := "stopped"
	if st.Active {
		state = "running"
	}
	return fmt.Sprintf("%s at %d baud, halves %d, messages %d, replies %d, dropped %d",
		state, st.BaudRate, st.Halves, st.Messages, st.Replies, st.Dropped)
}

func (s *Shell) status() string {
	var w bytes.Buffer
	now := s.Clock.Time()
	src := s.Link.Status()
	fmt.Fprintf(&w, "%-4s %-4s %8s %8s %7s %s\n", "SLOT", "ID", "RPM", "CURRENT", "DUTY", "AGE")
	for i := 0; i < src.Len(); i++ {
		st := src.Slot(i)
		if st.ID < 0 {
			continue
		}
		age := st.Age(now)
		mark := ""
		if age >= uartcomm.MaxStatusAge {
			mark = " (stale)"
		}
		fmt.Fprintf(&w, "%-4d %-4d %8d %8.1f %7.3f %s%s\n",
			i, st.ID, st.RPM, st.Current, st.Duty, age.Truncate(time.Millisecond), mark)
	}
	return strings.TrimSuffix(w.String(), "\n")
}

func (s *Shell) send(args []string) error {
	payload, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil || len(payload) == 0 {
		return errUsage
	}
	return s.Link.SendPacket(payload)
}

func (s *Shell) command(name string, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return errUsage
	}
	switch name {
	case "rpm":
		v, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return errUsage
		}
		return s.Motors.SetRPM(uint8(id), int32(v))
	case "current":
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return errUsage
		}
		return s.Motors.SetCurrent(uint8(id), float32(v))
	case "duty":
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil || v < -1 || v > 1 {
			return errUsage
		}
		return s.Motors.SetDuty(uint8(id), float32(v))
	}
	return errUsage
}

func okOrErr(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	c.Println("OK")
}

func motorCmd(name, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			okOrErr(c, ShellFrom(c).command(name, c.Args))
		},
	}
}

var commands = []*ishell.Cmd{
	{
		Name: "baud",
		Help: "[RATE]",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).baud(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	},
	{
		Name: "start",
		Func: func(c *ishell.Context) { okOrErr(c, ShellFrom(c).Link.Start()) },
	},
	{
		Name: "stop",
		Func: func(c *ishell.Context) { okOrErr(c, ShellFrom(c).Link.Stop()) },
	},
	{
		Name:    "status",
		Aliases: []string{"st"},
		Func:    func(c *ishell.Context) { c.Println(ShellFrom(c).status()) },
	},
	{
		Name: "stats",
		Func: func(c *ishell.Context) { c.Println(ShellFrom(c).stats()) },
	},
	{
		Name: "send",
		Help: "HEX...",
		Func: func(c *ishell.Context) { okOrErr(c, ShellFrom(c).send(c.Args)) },
	},
	motorCmd("rpm", "ID RPM"),
	motorCmd("current", "ID AMPS"),
	motorCmd("duty", "ID DUTY"),
}
