package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"solve": {
		Options: []string{"-max", "-sides", "-search", "-threads", "-format", "-convention", "-out"},
	},
	"export": {
		Options: []string{"-format", "-convention", "-out"},
	},
	"load": {
		Options: []string{"-max", "-sides"},
	},
	"lookup": {
		Args: []string{"final", "normal"},
	},
	"play": {
		Options: []string{"-max", "-sides", "-name1", "-name2", "-seed"},
		Args:    playerSpecs,
	},
	"autoplay": {
		Options: []string{"-max", "-sides", "-games", "-threads", "-p1", "-p2",
			"-name1", "-name2", "-logfile", "-gamelog", "-seeds", "-saveseeds"},
	},
	"remote": {
		Options: []string{"-max", "-sides", "-function"},
		Args:    []string{"final", "normal"},
	},
	"set": {
		Args: []string{"max", "sides", "search", "threads"},
	},
	"help": {
		Args: []string{"solve", "export", "play", "autoplay", "script"},
	},
}

var commandNames = []string{
	"help", "set", "solve", "load", "export", "lookup", "verify", "stats",
	"play", "autoplay", "analyze", "remote", "script", "version", "exit",
}

var playerSpecs = []string{HumanPlayer, "policy", "fixed:", "threshold:"}
var searchModes = []string{"exhaustive", "bounded", "pruned"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch lastCompleteField {
		case "-search", "search":
			completions = searchModes
		case "-format":
			completions = []string{"stdout", "text", "csv", "yaml", "sqlite"}
		case "-convention":
			completions = []string{"probability", "payoff"}
		case "-p1", "-p2":
			completions = playerSpecs[1:]
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
