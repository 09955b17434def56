package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/digest"
	"github.com/focusloop/focusbot/internal/intent"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/resolve"
	"github.com/focusloop/focusbot/internal/session"
)

// Sender delivers an outbound chat message. Implemented by the channel manager.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

const (
	defaultWorkMinutes  = 25
	defaultBreakMinutes = 5
	suggestLimit        = 3
)

// Agent orchestrates classified intents: it resolves entity references,
// drives the session engine, and formats chat responses.
type Agent struct {
	store      *db.Store
	resolver   *resolve.Resolver
	engine     *session.Engine
	classifier intent.Classifier
	timers     *PhaseTimer
}

// New creates an agent. The sender is used by phase timers to notify the
// channel when a work or break phase elapses.
func New(store *db.Store, resolver *resolve.Resolver, engine *session.Engine, classifier intent.Classifier, sender Sender) *Agent {
	a := &Agent{
		store:      store,
		resolver:   resolver,
		engine:     engine,
		classifier: classifier,
	}
	a.timers = NewPhaseTimer(engine, sender)
	return a
}

// Timers exposes the phase timer, mainly for shutdown
func (a *Agent) Timers() *PhaseTimer {
	return a.timers
}

// HandleMessage processes one inbound chat message and returns the reply text.
// Conversation context is loaded per call and written back; nothing about the
// conversation lives in process memory between messages.
func (a *Agent) HandleMessage(ctx context.Context, text, channelID string) string {
	cc, err := a.store.GetConversationContext(ctx, channelID)
	if err != nil {
		logging.Errorf("Failed to load conversation context: %v", err)
		cc = &db.ConversationContext{ChannelID: channelID}
	}

	result, err := a.classifier.Classify(ctx, text, a.buildPromptContext(ctx, cc))
	if err != nil {
		logging.Errorf("Intent classification failed: %v", err)
		return "Sorry, something went wrong. Please try again."
	}

	reply := a.dispatch(ctx, result, cc, channelID)

	cc.Append("user", text)
	cc.Append("assistant", reply)
	if err := a.store.SaveConversationContext(ctx, cc); err != nil {
		logging.Errorf("Failed to save conversation context: %v", err)
	}
	return reply
}

func (a *Agent) dispatch(ctx context.Context, result *intent.Result, cc *db.ConversationContext, channelID string) string {
	switch result.Kind {
	case intent.KindCreateProject:
		return a.handleCreateProject(ctx, result.Project, cc)
	case intent.KindCreateProjects:
		return a.handleCreateProjects(ctx, result.Projects)
	case intent.KindCreateTask:
		return a.handleCreateTask(ctx, result.Task, cc)
	case intent.KindCreateTasks:
		return a.handleCreateTasks(ctx, result.Tasks, cc)
	case intent.KindListProjects:
		return a.handleListProjects(ctx)
	case intent.KindListTasks:
		return a.handleListTasks(ctx, result.ProjectRef, cc)
	case intent.KindShowSummary:
		return a.handleShowSummary(ctx)
	case intent.KindDeleteProject:
		return a.handleDeleteProject(ctx, result.ProjectRef, cc)
	case intent.KindStartSession:
		return a.handleStartSession(ctx, result.Session, cc, channelID)
	case intent.KindPauseSessions:
		return a.handlePauseSessions(ctx)
	case intent.KindResumeSessions:
		return a.handleResumeSessions(ctx, channelID)
	case intent.KindCompleteSession:
		return a.handleCompleteSession(ctx, result.Session)
	case intent.KindGoingOut:
		return a.handleGoingOut(ctx, result.Away)
	case intent.KindComingBack:
		return "🏠 Welcome back!"
	case intent.KindHelp:
		return helpMessage
	default:
		return "Sorry, I didn't catch that. Say \"help\" to see what I can do."
	}
}

func (a *Agent) handleCreateProject(ctx context.Context, p *intent.ProjectEntity, cc *db.ConversationContext) string {
	if p == nil || p.Name == "" {
		return "Please give the project a name."
	}
	id, err := a.store.CreateProject(ctx, db.CreateProjectParams{
		Name:        p.Name,
		Description: p.Description,
		Deadline:    p.Deadline,
	})
	if err != nil {
		logging.Errorf("Create project failed: %v", err)
		return "Something went wrong creating the project."
	}
	cc.ActiveProjectID = id
	return fmt.Sprintf("✅ Created project %q (ID: %s)", p.Name, id)
}

func (a *Agent) handleCreateProjects(ctx context.Context, projects []intent.ProjectEntity) string {
	if len(projects) == 0 {
		return "Please list the projects to create."
	}
	params := make([]db.CreateProjectParams, len(projects))
	for i, p := range projects {
		if p.Name == "" {
			return "Every project needs a name."
		}
		params[i] = db.CreateProjectParams{Name: p.Name, Description: p.Description, Deadline: p.Deadline}
	}
	ids, err := a.store.CreateProjects(ctx, params)
	if err != nil {
		logging.Errorf("Create projects failed: %v", err)
		return "Something went wrong creating the projects."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Created %d projects:\n", len(ids))
	for i, p := range projects {
		fmt.Fprintf(&sb, "• %s (ID: %s)\n", p.Name, ids[i])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (a *Agent) handleCreateTask(ctx context.Context, t *intent.TaskEntity, cc *db.ConversationContext) string {
	if t == nil || t.Title == "" {
		return "Please give the task a title."
	}
	project, err := a.resolver.ResolveProject(ctx, t.ProjectRef, cc)
	if err != nil {
		return a.projectNotFoundReply(ctx, t.ProjectRef, err)
	}

	estimated := t.EstimatedMinutes
	if estimated <= 0 {
		estimated = defaultWorkMinutes
	}
	id, err := a.store.CreateTask(ctx, db.CreateTaskParams{
		ProjectID:        project.ID,
		Title:            t.Title,
		Description:      t.Description,
		Deadline:         t.Deadline,
		EstimatedMinutes: estimated,
	})
	if err != nil {
		logging.Errorf("Create task failed: %v", err)
		return "Something went wrong creating the task."
	}
	cc.ActiveProjectID = project.ID
	return fmt.Sprintf("✅ Created task %q in %s (ID: %s)", t.Title, project.Name, id)
}

func (a *Agent) handleCreateTasks(ctx context.Context, tasks []intent.TaskEntity, cc *db.ConversationContext) string {
	if len(tasks) == 0 {
		return "Please list the tasks to create."
	}
	project, err := a.resolver.ResolveProject(ctx, tasks[0].ProjectRef, cc)
	if err != nil {
		return a.projectNotFoundReply(ctx, tasks[0].ProjectRef, err)
	}

	params := make([]db.CreateTaskParams, len(tasks))
	for i, t := range tasks {
		if t.Title == "" {
			return "Every task needs a title."
		}
		params[i] = db.CreateTaskParams{
			Title:            t.Title,
			Description:      t.Description,
			Deadline:         t.Deadline,
			EstimatedMinutes: t.EstimatedMinutes,
		}
	}
	ids, err := a.store.CreateTasks(ctx, project.ID, params)
	if err != nil {
		logging.Errorf("Create tasks failed: %v", err)
		return "Something went wrong creating the tasks."
	}
	cc.ActiveProjectID = project.ID

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Created %d tasks in %s:\n", len(ids), project.Name)
	for i, t := range tasks {
		fmt.Fprintf(&sb, "• %s (ID: %s)\n", t.Title, ids[i])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (a *Agent) handleListProjects(ctx context.Context) string {
	projects, err := a.store.ListAllProjects(ctx)
	if err != nil {
		logging.Errorf("List projects failed: %v", err)
		return "Something went wrong listing projects."
	}
	if len(projects) == 0 {
		return "No projects yet."
	}
	var sb strings.Builder
	sb.WriteString("📋 *Projects*\n")
	for _, p := range projects {
		deadline := p.Deadline
		if deadline == "" {
			deadline = "no deadline"
		}
		fmt.Fprintf(&sb, "• %s: %s (%s)\n", p.ID, p.Name, deadline)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (a *Agent) handleListTasks(ctx context.Context, projectRef string, cc *db.ConversationContext) string {
	var tasks []db.Task
	var err error

	if projectRef != "" {
		project, rerr := a.resolver.ResolveProject(ctx, projectRef, cc)
		if rerr != nil {
			return a.projectNotFoundReply(ctx, projectRef, rerr)
		}
		tasks, err = a.store.ListTasksByProject(ctx, project.ID)
	} else {
		tasks, err = a.store.ListAllTasks(ctx)
	}
	if err != nil {
		logging.Errorf("List tasks failed: %v", err)
		return "Something went wrong listing tasks."
	}
	if len(tasks) == 0 {
		if projectRef != "" {
			return "That project has no tasks yet."
		}
		return "No tasks yet."
	}

	var sb strings.Builder
	sb.WriteString("📝 *Tasks*\n")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "• %s: %s (%s) - %d min\n", t.ID, t.Title, t.Status, t.EstimatedMinutes)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (a *Agent) handleShowSummary(ctx context.Context) string {
	summary, err := digest.Generate(ctx, a.store)
	if err != nil {
		logging.Errorf("Summary generation failed: %v", err)
		return "Something went wrong generating the summary."
	}
	return "📊 *Current status*\n\n" + summary
}

func (a *Agent) handleDeleteProject(ctx context.Context, projectRef string, cc *db.ConversationContext) string {
	if projectRef == "" {
		return "Please say which project to delete."
	}
	project, err := a.resolver.ResolveProject(ctx, projectRef, cc)
	if err != nil {
		return a.projectNotFoundReply(ctx, projectRef, err)
	}

	// Hard delete; every task under the project goes with it
	if err := a.store.DeleteProject(ctx, project.ID); err != nil {
		logging.Errorf("Delete project failed: %v", err)
		return "Something went wrong deleting the project."
	}
	if cc.ActiveProjectID == project.ID {
		cc.ActiveProjectID = ""
		cc.ActiveTaskID = ""
	}
	return fmt.Sprintf("✅ Deleted project %q and all of its tasks.", project.Name)
}

func (a *Agent) handleStartSession(ctx context.Context, s *intent.SessionEntity, cc *db.ConversationContext, channelID string) string {
	ref := ""
	work := defaultWorkMinutes
	brk := defaultBreakMinutes
	if s != nil {
		ref = s.TaskRef
		if s.WorkMinutes > 0 {
			work = s.WorkMinutes
		}
		if s.BreakMinutes > 0 {
			brk = s.BreakMinutes
		}
	}

	task, err := a.resolver.ResolveTask(ctx, ref, cc)
	if err != nil {
		return a.taskNotFoundReply(ctx, ref, err)
	}

	sessionID, err := a.engine.Start(ctx, task.ID, work, brk)
	if err != nil {
		if errors.Is(err, session.ErrValidation) {
			return "Work and break minutes must be positive."
		}
		logging.Errorf("Start session failed: %v", err)
		return "Something went wrong starting the session."
	}

	cc.ActiveTaskID = task.ID
	cc.ActiveProjectID = task.ProjectID
	a.timers.Schedule(sessionID, channelID, task.Title, work, brk)

	return fmt.Sprintf("⏰ Started a focus session on %q (%d min work / %d min break)", task.Title, work, brk)
}

func (a *Agent) handlePauseSessions(ctx context.Context) string {
	report, err := a.engine.PauseAll(ctx)
	if err != nil {
		logging.Errorf("Pause all failed: %v", err)
		return "Something went wrong pausing sessions."
	}
	if report.Succeeded == 0 && report.Failed == 0 {
		return "No active sessions to pause."
	}
	a.timers.StopAll()
	if report.Failed > 0 {
		return fmt.Sprintf("⏸️ Paused %d sessions; %d failed.", report.Succeeded, report.Failed)
	}
	return fmt.Sprintf("⏸️ Paused %d sessions. Say \"resume\" when you're ready.", report.Succeeded)
}

func (a *Agent) handleResumeSessions(ctx context.Context, channelID string) string {
	paused, err := a.engine.ListPaused(ctx)
	if err != nil {
		logging.Errorf("List paused failed: %v", err)
		return "Something went wrong resuming sessions."
	}
	if len(paused) == 0 {
		return "No paused sessions to resume."
	}

	report, err := a.engine.ResumeAll(ctx)
	if err != nil {
		logging.Errorf("Resume all failed: %v", err)
		return "Something went wrong resuming sessions."
	}

	// Re-arm timers against each session's remaining budget, not the
	// originally configured work minutes
	for _, fs := range paused {
		title := fs.TaskID
		if task, err := a.store.FindTaskByID(ctx, fs.TaskID); err == nil {
			title = task.Title
		}
		a.timers.Schedule(fs.ID, channelID, title, fs.RemainingWorkMinutes, fs.BreakMinutes)
	}

	if report.Failed > 0 {
		return fmt.Sprintf("▶️ Resumed %d sessions; %d failed.", report.Succeeded, report.Failed)
	}
	return fmt.Sprintf("▶️ Resumed %d sessions. Back to work!", report.Succeeded)
}

func (a *Agent) handleCompleteSession(ctx context.Context, s *intent.SessionEntity) string {
	sessionID := ""
	if s != nil {
		sessionID = s.SessionID
	}
	if sessionID == "" {
		// Complete the most recent active session when none was named
		active, err := a.engine.ListActive(ctx)
		if err != nil {
			logging.Errorf("List active failed: %v", err)
			return "Something went wrong completing the session."
		}
		if len(active) == 0 {
			return "No active session to complete."
		}
		sessionID = active[0].ID
	}

	if err := a.engine.Complete(ctx, sessionID); err != nil {
		if errors.Is(err, session.ErrInvalidState) {
			return "That session is already completed."
		}
		if errors.Is(err, session.ErrSessionNotFound) {
			return "I couldn't find that session."
		}
		logging.Errorf("Complete session failed: %v", err)
		return "Something went wrong completing the session."
	}
	a.timers.Stop(sessionID)
	return "🎉 Session completed. Nice work!"
}

func (a *Agent) handleGoingOut(ctx context.Context, away *intent.AwayEntity) string {
	reason := "an errand"
	duration := 0
	if away != nil {
		if away.Reason != "" {
			reason = away.Reason
		}
		duration = away.DurationMinutes
	}

	// Stepping out implies pausing whatever is running
	report, err := a.engine.PauseAll(ctx)
	if err != nil {
		logging.Errorf("Pause on going out failed: %v", err)
	} else if report.Succeeded > 0 {
		a.timers.StopAll()
	}

	msg := fmt.Sprintf("👋 Stepping out for %s.", reason)
	if report.Succeeded > 0 {
		msg += fmt.Sprintf(" Paused %d running sessions.", report.Succeeded)
	}
	if duration > 0 {
		msg += fmt.Sprintf(" Back in about %d minutes.", duration)
	}
	return msg
}

// projectNotFoundReply turns a failed project resolution into a
// disambiguation prompt with ranked suggestions
func (a *Agent) projectNotFoundReply(ctx context.Context, reference string, err error) string {
	if !errors.Is(err, resolve.ErrNotFound) {
		logging.Errorf("Project resolution failed: %v", err)
		return "Something went wrong looking up the project."
	}
	if reference == "" {
		return "Please say which project you mean."
	}

	candidates, serr := a.resolver.SuggestProjects(ctx, reference, suggestLimit)
	if serr != nil || len(candidates) == 0 {
		return fmt.Sprintf("I couldn't find a project matching %q.", reference)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I couldn't find a project matching %q. Did you mean:\n", reference)
	for _, c := range candidates {
		fmt.Fprintf(&sb, "• %s (ID: %s)\n", c.Project.Name, c.Project.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// taskNotFoundReply turns a failed task resolution into a disambiguation
// prompt with ranked, project-annotated suggestions
func (a *Agent) taskNotFoundReply(ctx context.Context, reference string, err error) string {
	if !errors.Is(err, resolve.ErrNotFound) {
		logging.Errorf("Task resolution failed: %v", err)
		return "Something went wrong looking up the task."
	}
	if reference == "" {
		return "Please say which task you mean."
	}

	candidates, serr := a.resolver.SuggestTasks(ctx, reference, suggestLimit)
	if serr != nil || len(candidates) == 0 {
		return fmt.Sprintf("I couldn't find a task matching %q.", reference)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I couldn't find a task matching %q. Did you mean:\n", reference)
	for _, c := range candidates {
		project := c.ProjectName
		if project == "" {
			project = "unknown project"
		}
		fmt.Fprintf(&sb, "• %s [%s] (ID: %s)\n", c.Task.Title, project, c.Task.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// buildPromptContext assembles the classifier's conversation context from the
// explicit per-channel state
func (a *Agent) buildPromptContext(ctx context.Context, cc *db.ConversationContext) string {
	var sb strings.Builder

	if cc.ActiveProjectID != "" {
		if p, err := a.store.FindProjectByID(ctx, cc.ActiveProjectID); err == nil {
			fmt.Fprintf(&sb, "Active project: %s\n", p.Name)
		}
	}
	if cc.ActiveTaskID != "" {
		if t, err := a.store.FindTaskByID(ctx, cc.ActiveTaskID); err == nil {
			fmt.Fprintf(&sb, "Active task: %s\n", t.Title)
		}
	}
	if len(cc.Messages) > 0 {
		sb.WriteString("Recent conversation:\n")
		start := len(cc.Messages) - 3
		if start < 0 {
			start = 0
		}
		for _, m := range cc.Messages[start:] {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

const helpMessage = `🤖 *What I can do*

📋 *Projects*
• "show my projects"
• "create a project called Website Redesign"
• "delete the Website project"

📝 *Tasks*
• "show my tasks" / "show tasks for Website"
• "add a task to Website: write the landing page copy"

⏰ *Focus sessions*
• "start a pomodoro on the landing page task"
• "pause" / "resume"
• "done with the session"

📊 *Status*
• "show me a summary"

🚶 *Away*
• "stepping out for lunch, back in 30"
• "I'm back"`
