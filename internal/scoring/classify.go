package scoring

import "math"

const (
	FirstClass       = "First Class"
	SecondClassUpper = "Second Class Upper"
	SecondClassLower = "Second Class Lower"
	ThirdClass       = "Third Class"
	Pass             = "Pass"
	NoClass          = "No Class"
)

// Band bounds are in hundredths of a grade point, both ends inclusive.
type Band struct {
	Label   string
	Message string
	Min     int
	Max     int
}

var Bands = []Band{
	{FirstClass, "🎉 Congratulations! You're in the First Class. Outstanding performance!", 450, 500},
	{SecondClassUpper, "👏 Great job! You're in the Second Class Upper. Keep it up!", 350, 449},
	{SecondClassLower, "👍 Good work! You're in the Second Class Lower. Well done!", 240, 349},
	{ThirdClass, "🙂 You've earned a Third Class. There's room for improvement, keep pushing!", 150, 239},
	{Pass, "🙂 You've passed. Keep striving to improve!", 100, 149},
}

var noClassMessage = "😟 Your GPA is below the minimum passing grade. Don't give up, work hard next time!"

// Classify returns the label and message of the first band containing the
// average, evaluated top-down after rounding to two decimals.
func Classify(average float64) (string, string) {
	if math.IsNaN(average) || math.IsInf(average, 0) {
		return NoClass, noClassMessage
	}

	hundredths := int(math.Round(average * 100))
	for _, b := range Bands {
		if hundredths >= b.Min && hundredths <= b.Max {
			return b.Label, b.Message
		}
	}
	return NoClass, noClassMessage
}
