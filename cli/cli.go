// Package cli is a thin text-menu client over facade.Facade. It carries
// no business logic of its own: every command is one facade call plus a
// rendering step.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"hackhub/domain"
	"hackhub/facade"
)

// CLI reads commands from in and writes rendered output to out.
type CLI struct {
	facade *facade.Facade
	in     *bufio.Scanner
	out    io.Writer
}

func New(f *facade.Facade, in io.Reader, out io.Writer) *CLI {
	return &CLI{facade: f, in: bufio.NewScanner(in), out: out}
}

// Run reads one command per line until EOF or "/quit". It returns a
// non-zero process exit indication only for unknown commands; a
// domain-kind error prints a one-line message and counts as handled.
func (c *CLI) Run(ctx context.Context) int {
	exitCode := 0
	fmt.Fprintln(c.out, "hackhub interactive console. Type /help for commands.")
	for c.in.Scan() {
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return exitCode
		}
		if !c.dispatch(ctx, line) {
			exitCode = 1
		}
	}
	return exitCode
}

// dispatch executes one command line and returns false only when the
// command itself is unrecognized.
func (c *CLI) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		c.printHelp()
	case "/create_team":
		c.createTeam(ctx, args)
	case "/add_participant":
		c.addParticipant(ctx, args)
	case "/teams":
		c.listTeams(ctx)
	case "/create_project":
		c.createProject(ctx, args)
	case "/update_state":
		c.updateState(ctx, args)
	case "/projects":
		c.listProjects(ctx)
	case "/register_mentor":
		c.registerMentor(ctx, args)
	case "/mentors":
		c.listMentors(ctx)
	case "/send_feedback":
		c.sendFeedback(ctx, args)
	case "/create_room":
		c.createRoom(ctx, args)
	case "/send_message":
		c.sendMessage(ctx, args)
	case "/history":
		c.history(ctx, args)
	case "/rooms":
		c.listRooms(ctx)
	case "/cluster_info", "/cluster_connect", "/cluster_nodes", "/cluster_ping":
		c.clusterInfo()
	case "/reset":
		c.reset(ctx)
	case "/clear_all":
		c.clearAll()
	case "/persist_save":
		c.persistSave(ctx)
	case "/persist_info":
		c.persistInfo()
	default:
		fmt.Fprintln(c.out, colorError("unknown command: "+cmd+" (try /help)"))
		return false
	}
	return true
}

func (c *CLI) printHelp() {
	fmt.Fprintln(c.out, `commands:
  /create_team <name> <topic>
  /add_participant <team> <name> <email>
  /teams
  /create_project <team> <description> <category>
  /update_state <team> <state>
  /projects
  /register_mentor <name> <specialty>
  /mentors
  /send_feedback <mentor_id> <team> <content...>
  /create_room <name>
  /send_message <room> <author> <content...>
  /history <room> [limit]
  /rooms
  /cluster_info
  /persist_save
  /persist_info
  /reset
  /clear_all
  /quit`)
}

func (c *CLI) createTeam(ctx context.Context, args []string) {
	if len(args) < 2 {
		c.usage("/create_team <name> <topic>")
		return
	}
	team, err := c.facade.CreateTeam(ctx, args[0], strings.Join(args[1:], " "))
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess(fmt.Sprintf("team %q created (id=%s)", team.Name, team.ID)))
}

func (c *CLI) addParticipant(ctx context.Context, args []string) {
	if len(args) < 3 {
		c.usage("/add_participant <team> <name> <email>")
		return
	}
	team, err := c.facade.AddParticipant(ctx, args[0], args[1], args[2])
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess(fmt.Sprintf("%s now has %d participants", team.Name, len(team.Participants))))
}

func (c *CLI) listTeams(ctx context.Context) {
	teams, err := c.facade.ListTeams(ctx)
	if c.reportErr(err) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Name", "Topic", "Participants"})
	for _, t := range teams {
		table.Append([]string{t.Name, t.Topic, strconv.Itoa(len(t.Participants))})
	}
	table.Render()
}

func (c *CLI) createProject(ctx context.Context, args []string) {
	if len(args) < 3 {
		c.usage("/create_project <team> <description> <category>")
		return
	}
	category := domain.Category(args[len(args)-1])
	description := strings.Join(args[1:len(args)-1], " ")
	p, err := c.facade.CreateProject(ctx, args[0], description, category)
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess(fmt.Sprintf("project for %s created in state %s", p.TeamName, p.State)))
}

func (c *CLI) updateState(ctx context.Context, args []string) {
	if len(args) < 2 {
		c.usage("/update_state <team> <state>")
		return
	}
	p, err := c.facade.UpdateProjectState(ctx, args[0], domain.State(args[1]))
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess(fmt.Sprintf("%s is now %s", p.TeamName, p.State)))
}

func (c *CLI) listProjects(ctx context.Context) {
	projects, err := c.facade.ListAllProjects(ctx)
	if c.reportErr(err) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Team", "Category", "State", "Progress entries"})
	for _, p := range projects {
		table.Append([]string{p.TeamName, string(p.Category), string(p.State), strconv.Itoa(len(p.Progress))})
	}
	table.Render()
}

func (c *CLI) registerMentor(ctx context.Context, args []string) {
	if len(args) < 2 {
		c.usage("/register_mentor <name> <specialty>")
		return
	}
	m, err := c.facade.RegisterMentor(ctx, args[0], strings.Join(args[1:], " "))
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess(fmt.Sprintf("mentor %q registered (id=%s)", m.Name, m.ID)))
}

func (c *CLI) listMentors(ctx context.Context) {
	mentors, err := c.facade.ListMentors(ctx)
	if c.reportErr(err) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"ID", "Name", "Specialty", "Feedback given"})
	for _, m := range mentors {
		table.Append([]string{m.ID, m.Name, m.Specialty, strconv.Itoa(len(m.FeedbackGiven))})
	}
	table.Render()
}

func (c *CLI) sendFeedback(ctx context.Context, args []string) {
	if len(args) < 3 {
		c.usage("/send_feedback <mentor_id> <team> <content...>")
		return
	}
	m, err := c.facade.SendMentorFeedback(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess(fmt.Sprintf("feedback recorded for mentor %s", m.Name)))
}

func (c *CLI) createRoom(ctx context.Context, args []string) {
	if len(args) < 1 {
		c.usage("/create_room <name>")
		return
	}
	name, err := c.facade.CreateRoom(ctx, args[0])
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess("room created: "+name))
}

func (c *CLI) sendMessage(ctx context.Context, args []string) {
	if len(args) < 3 {
		c.usage("/send_message <room> <author> <content...>")
		return
	}
	err := c.facade.SendMessage(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess("message sent"))
}

func (c *CLI) history(ctx context.Context, args []string) {
	if len(args) < 1 {
		c.usage("/history <room> [limit]")
		return
	}
	limit := 0
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			c.usage("/history <room> [limit]")
			return
		}
		limit = n
	}
	msgs, err := c.facade.History(ctx, args[0], limit)
	if c.reportErr(err) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Timestamp", "Author", "Content"})
	for _, m := range msgs {
		table.Append([]string{m.Timestamp.Format("15:04:05"), m.Author, m.Content})
	}
	table.Render()
}

func (c *CLI) listRooms(ctx context.Context) {
	rooms, err := c.facade.ListRooms(ctx)
	if c.reportErr(err) {
		return
	}
	fmt.Fprintln(c.out, strings.Join(rooms, ", "))
}

func (c *CLI) clusterInfo() {
	info, err := c.facade.ClusterInfo()
	if c.reportErr(err) {
		return
	}
	fmt.Fprintf(c.out, "node=%s holder=%s is_holder=%t peers=%v cpu=%.1f%% rss=%dB\n",
		info.NodeID, info.HolderID, info.IsHolder, info.Peers, info.CPUPercent, info.RSSBytes)
}

func (c *CLI) reset(ctx context.Context) {
	if c.reportErr(c.facade.Reset(ctx)) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess("state reset"))
}

func (c *CLI) clearAll() {
	if c.reportErr(c.facade.ClearAll()) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess("snapshot directory cleared"))
}

func (c *CLI) persistSave(ctx context.Context) {
	if c.reportErr(c.facade.PersistState(ctx)) {
		return
	}
	fmt.Fprintln(c.out, colorSuccess("state persisted to disk"))
}

func (c *CLI) persistInfo() {
	info, err := c.facade.PersistInfo()
	if c.reportErr(err) {
		return
	}
	fmt.Fprintf(c.out, "teams=%d projects=%d mentors=%d rooms=%d cpu=%.1f%% rss=%dB\n",
		info.TeamCount, info.ProjectCount, info.MentorCount, info.RoomCount, info.CPUPercent, info.RSSBytes)
}

func (c *CLI) usage(line string) {
	fmt.Fprintln(c.out, colorError("usage: "+line))
}

// reportErr prints a one-line error message for any non-nil err and
// reports whether it handled one. Domain-kind errors are not fatal to
// the session; the caller keeps reading commands.
func (c *CLI) reportErr(err error) bool {
	if err == nil {
		return false
	}
	fmt.Fprintln(c.out, colorError(err.Error()))
	return true
}

func colorSuccess(s string) string {
	return color.New(color.FgGreen).Render(s)
}

func colorError(s string) string {
	return color.New(color.FgRed).Render(s)
}
