package tools

// DecomposePromptTemplate asks the planner for one of two fixed shapes. %s is the task.
const DecomposePromptTemplate = `You are a task planner for a productivity game. You receive one task from the user and decide whether it has to be split into subtasks.

Answer in exactly this format and nothing else:

task: %s

When the task is simple enough to do in one go:
subtasks required: 0
note: <one short, encouraging sentence acknowledging the task>

When the task should be split:
subtasks required: <number of subtasks>
subtask1: <subtask description> | XP: <estimated XP>
subtask2: <subtask description> | XP: <estimated XP>
...
total XP: <sum of all XP values>

Guidelines:
- Trivial chores like "water the plants" never get subtasks.
- Keep subtask descriptions short and actionable, one line each.
- XP reflects effort; a fully scoped task adds up to 100.`

// ScheduleDetailsPromptTemplate asks for the scheduling fields as JSON.
// Arguments: current date/time reference, timezone, task.
const ScheduleDetailsPromptTemplate = `Read the user's task and pull out any scheduling details it mentions:
- date (YYYY-MM-DD)
- time (HH:MM, 24-hour clock)
- location
- attendees (email addresses only)

Reply with a single JSON object and no other text:
{
  "date": "YYYY-MM-DD",
  "time": "HH:MM",
  "location": "...",
  "attendees": ["person@example.com"]
}

Use null for any field that is not mentioned and [] when there are no attendee emails.
Resolve relative dates ("tomorrow", "next Friday") against the current date below.

Current date/time: %s (%s)
Task: %s`
