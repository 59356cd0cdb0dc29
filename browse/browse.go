// Package browse implements an interactive shell over a single open XP3
// archive: ls/cd/show/extract commands over its reconstructed items,
// driven by a colorized readline prompt.
package browse

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	e "github.com/pkg/errors"
	"github.com/sahib/flare/xp3"
)

// Shell is one interactive browsing session over an open archive.
type Shell struct {
	input io.ReadSeeker
	items []xp3.Item
	cwd   string
}

// New lists input's items and returns a ready-to-run Shell.
func New(input io.ReadSeeker) (*Shell, error) {
	items, err := xp3.List(input, nil)
	if err != nil {
		return nil, e.Wrap(err, "browse: listing archive")
	}
	if items == nil {
		return nil, e.New("browse: input is not an XP3 archive")
	}
	return &Shell{input: input, items: items, cwd: "/"}, nil
}

// Run drives the prompt loop until the user quits or EOF is reached.
func (s *Shell) Run() error {
	rl, err := readline.New(s.prompt())
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := s.dispatch(fields[0], fields[1:]); err != nil {
			fmt.Println(color.RedString(err.Error()))
		}
	}
}

func (s *Shell) prompt() string {
	return color.CyanString("xp3") + ":" + color.GreenString(s.cwd) + "> "
}

func (s *Shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "ls":
		return s.cmdLs(args)
	case "cd":
		return s.cmdCd(args)
	case "show":
		return s.cmdShow(args)
	case "extract":
		return s.cmdExtract(args)
	case "quit", "exit":
		os.Exit(0)
		return nil
	case "help":
		fmt.Println("commands: ls [dir], cd <dir>, show <file>, extract <file> <dest>, quit")
		return nil
	default:
		return e.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

// resolve turns a possibly-relative archive path into an absolute one
// against the current working directory, the same way a Unix shell would.
func (s *Shell) resolve(p string) string {
	if p == "" {
		return s.cwd
	}
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean(path.Join(s.cwd, p))
}

// childNames returns the direct children of dir: subdirectory names
// (deduplicated, suffixed with "/") and file names with no further
// separator beneath dir.
func (s *Shell) childNames(dir string) []string {
	dir = strings.TrimSuffix(dir, "/")
	seen := map[string]bool{}
	var names []string

	for _, item := range s.items {
		name := "/" + strings.TrimPrefix(item.Name, "/")
		if !strings.HasPrefix(name, dir+"/") {
			continue
		}
		rest := strings.TrimPrefix(name, dir+"/")
		if rest == "" {
			continue
		}

		if idx := strings.Index(rest, "/"); idx >= 0 {
			child := rest[:idx] + "/"
			if !seen[child] {
				seen[child] = true
				names = append(names, child)
			}
			continue
		}

		if !seen[rest] {
			seen[rest] = true
			names = append(names, rest)
		}
	}

	sort.Strings(names)
	return names
}

func (s *Shell) cmdLs(args []string) error {
	dir := s.cwd
	if len(args) > 0 {
		dir = s.resolve(args[0])
	}

	for _, name := range s.childNames(dir) {
		if strings.HasSuffix(name, "/") {
			fmt.Println(color.BlueString(name))
		} else {
			fmt.Println(name)
		}
	}
	return nil
}

func (s *Shell) cmdCd(args []string) error {
	if len(args) != 1 {
		return e.New("usage: cd <dir>")
	}

	target := s.resolve(args[0])
	if len(s.childNames(target)) == 0 {
		return e.Errorf("no such directory: %s", target)
	}

	s.cwd = target
	return nil
}

func (s *Shell) findItem(name string) (xp3.Item, error) {
	target := strings.TrimPrefix(s.resolve(name), "/")
	for _, item := range s.items {
		if strings.TrimPrefix(item.Name, "/") == target {
			return item, nil
		}
	}
	return xp3.Item{}, e.Errorf("no such file: %s", name)
}

func (s *Shell) cmdShow(args []string) error {
	if len(args) != 1 {
		return e.New("usage: show <file>")
	}

	item, err := s.findItem(args[0])
	if err != nil {
		return err
	}

	data, err := xp3.Gather(s.input, item)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s bytes)\n", item.Name, strconv.FormatUint(item.OriginalSize, 10))
	os.Stdout.Write(data)
	fmt.Println()
	return nil
}

func (s *Shell) cmdExtract(args []string) error {
	if len(args) != 2 {
		return e.New("usage: extract <file> <dest>")
	}

	item, err := s.findItem(args[0])
	if err != nil {
		return err
	}

	data, err := xp3.Gather(s.input, item)
	if err != nil {
		return err
	}

	return os.WriteFile(args[1], data, 0o644)
}
