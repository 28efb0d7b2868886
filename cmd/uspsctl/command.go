package main

import (
	"fmt"
	"io"
	"os"
)

// Command is one uspsctl subcommand
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Run         func(env *Env, args []string) error
}

// PrintUsage prints the description, usage line and examples
func (c *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", c.Description)
	fmt.Fprintf(w, "USAGE:\n    %s\n\n", c.Usage)
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range c.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
	}
}

// Registry dispatches os.Args to commands
type Registry struct {
	commands map[string]*Command
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command; help lists commands in registration order
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
}

// Execute runs the command named by args[0]
func (r *Registry) Execute(env *Env, args []string) error {
	if len(args) < 1 {
		r.PrintHelp(env.Out)
		return fmt.Errorf("no command specified")
	}

	switch args[0] {
	case "help", "-h", "--help":
		r.PrintHelp(env.Out)
		return nil
	}

	cmd, ok := r.commands[args[0]]
	if !ok {
		r.PrintHelp(os.Stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if len(args) > 1 && (args[1] == "-h" || args[1] == "--help") {
		cmd.PrintUsage(env.Out)
		return nil
	}
	return cmd.Run(env, args[1:])
}

// PrintHelp prints overall CLI help
func (r *Registry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "uspsctl - diagnostics for the USPS gateway")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    uspsctl <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	for _, name := range r.order {
		fmt.Fprintf(w, "    %-12s %s\n", name, r.commands[name].Description)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Configuration is read from the environment and .env, as for the gateway.")
}
