package device

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

var errEmptyLine = errors.New("empty line")

const menuHelp = `Commands:
  <n>         play animation n
  list        list animations
  status      show playback status
  show        print the panel (simulation mode)
  on | off    turn the panel on or off
  cmd <name> [args...]
              send a controller command, e.g. cmd ContrastControl 0x40
  quit        stop the server
`

// Menu reads commands from the terminal.
type Menu struct {
	eventChannel chan event.MenuEvent
	in           io.Reader
	out          io.Writer

	askDone chan bool
	done    chan bool
}

func NewMenu() *Menu {
	return &Menu{
		eventChannel: make(chan event.MenuEvent),
		in:           os.Stdin,
		out:          colorable.NewColorableStdout(),
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
}

func (d *Menu) Start() {
	logrus.Infof("Start menu device")

	// The reader goroutine may stay blocked on stdin until the process exits.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(d.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logrus.Warnf("Unable to read menu input: %v", err)
		}
		close(lines)
	}()

	d.Printf("%s", menuHelp)
	go func() {
		for loop := true; loop; {
			select {
			case line, ok := <-lines:
				if !ok {
					logrus.Debugf("Menu input closed")
					lines = nil
					continue
				}
				ev, err := ParseMenuLine(line)
				if errors.Is(err, errEmptyLine) {
					continue
				}
				if err != nil {
					d.Printf("%v\n%s", err, menuHelp)
					continue
				}
				select {
				case d.eventChannel <- ev:
				case <-d.askDone:
					loop = false
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Menu) StopSendingEvent() {
	logrus.Infof("Stop menu device")
	d.askDone <- true
	<-d.done
}

func (d *Menu) EventChannel() chan event.MenuEvent {
	return d.eventChannel
}

// Printf writes a menu answer.
func (d *Menu) Printf(format string, args ...interface{}) {
	fmt.Fprintf(d.out, format, args...)
}

// ParseMenuLine turns a menu line into an event. Animations are numbered
// from 1 in the menu.
func ParseMenuLine(line string) (event.MenuEvent, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return event.MenuEvent{}, fmt.Errorf("unable to parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return event.MenuEvent{}, errEmptyLine
	}
	if cmd := strings.ToLower(words[0]); cmd == "cmd" || cmd == "c" {
		return parseCommand(words[1:])
	}
	if len(words) > 1 {
		return event.MenuEvent{}, fmt.Errorf("unexpected arguments %q", strings.Join(words[1:], " "))
	}
	switch strings.ToLower(words[0]) {
	case "list", "l":
		return event.MenuEvent{Data: event.MenuEventListData{}}, nil
	case "status", "s":
		return event.MenuEvent{Data: event.MenuEventStatusData{}}, nil
	case "show":
		return event.MenuEvent{Data: event.MenuEventShowData{}}, nil
	case "on":
		return event.MenuEvent{Data: event.MenuEventPowerData{On: true}}, nil
	case "off":
		return event.MenuEvent{Data: event.MenuEventPowerData{On: false}}, nil
	case "quit", "q", "exit":
		return event.MenuEvent{Data: event.MenuEventQuitData{}}, nil
	}
	n, err := strconv.Atoi(words[0])
	if err != nil {
		return event.MenuEvent{}, fmt.Errorf("unknown command %q", words[0])
	}
	if n < 1 {
		return event.MenuEvent{}, fmt.Errorf("animations are numbered from 1, got %d", n)
	}
	return event.MenuEvent{Data: event.MenuEventSelectData{Index: n - 1}}, nil
}

// parseCommand reads a command name followed by exactly its argument bytes.
func parseCommand(words []string) (event.MenuEvent, error) {
	if len(words) == 0 {
		return event.MenuEvent{}, errors.New("cmd needs a command name")
	}
	op, ok := ssd1306axi.LookupCommand(words[0])
	if !ok {
		return event.MenuEvent{}, fmt.Errorf("unknown controller command %q", words[0])
	}
	if n := len(words) - 1; n != op.Arity() {
		return event.MenuEvent{}, fmt.Errorf("%s takes %d arguments, got %d", op, op.Arity(), n)
	}
	args := make([]byte, 0, op.Arity())
	for _, w := range words[1:] {
		v, err := strconv.ParseUint(w, 0, 8)
		if err != nil {
			return event.MenuEvent{}, fmt.Errorf("invalid argument %q: %w", w, err)
		}
		args = append(args, byte(v))
	}
	return event.MenuEvent{Data: event.MenuEventCommandData{Op: op, Args: args}}, nil
}
