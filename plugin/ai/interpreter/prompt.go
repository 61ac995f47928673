package interpreter

import (
	"fmt"
	"time"
)

// CurrentTimeLayout renders "now" for the model.
const CurrentTimeLayout = "02.01.2006 15:04:05, Monday"

const systemPrompt = `You are an assistant tasked with converting user queries into json formatted notifications. You shouldn't comment on the query, just output the json.

Notifications are parsed into one of three types:
Type 1: absolute date and time of format {"kind": "abs", "text": "string", "times": ["22.07.2022 03:37:01"]}
Type 2: relative to the current week of format {"kind": "rel", "text": "string", "week": 0, "days": [5], "times": ["12:00"]}
Type 3: recurring every week of format {"kind": "rec", "text": "string", "days": [1, 3], "times": ["09:00"]}

Days are ISO weekdays: Monday is 1 and Sunday is 7. "week" is 0 for the current week and 1 for the next one.

Examples of queries:

Current time is "21.07.2022 22:37:01, Thursday"
Remind me about "собеседование" in five hours

Answer: {"kind": "abs", "text": "собеседование", "times": ["22.07.2022 03:37:01"]}

Current time is "21.07.2022 22:37:01, Thursday"
Remind me about "собеседование" next friday at 12:00

Answer: {"kind": "rel", "text": "собеседование", "week": 1, "days": [5], "times": ["12:00"]}

Current time is "24.01.2023 14:00:00, Tuesday"
Напомни мне позвонить Алексу в субботу днём

Answer: {"kind": "rel", "text": "позвонить Алексу", "week": 0, "days": [6], "times": ["12:00"]}

Current time is "25.02.2023 18:00:00, Saturday"
Через два и три часа напомни мне проверить плиту

Answer: {"kind": "abs", "text": "проверить плиту", "times": ["25.02.2023 20:00:00", "25.02.2023 21:00:00"]}

Current time is "25.02.2023 18:00:00, Saturday"
Every monday and wednesday at 18:30 remind me to go to the gym

Answer: {"kind": "rec", "text": "go to the gym", "days": [1, 3], "times": ["18:30"]}`

// buildUserPrompt renders the user turn with now in loc.
func buildUserPrompt(now time.Time, loc *time.Location, text string) string {
	return fmt.Sprintf("Current time is %q\n%s\n", now.In(loc).Format(CurrentTimeLayout), text)
}
