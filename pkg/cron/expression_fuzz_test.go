package cron

import "testing"

func FuzzParseExpression(f *testing.F) {
	f.Add("0 * * * * *", "*/5")
	f.Add("*/5 * * * * *", "*")
	f.Add("0 0 1 1 * *", "61")
	f.Add("@hourly", "*")
	f.Add("invalid", "")
	f.Add("", "*/0")
	f.Add("0  * * * * *", "1")

	f.Fuzz(func(t *testing.T, text, value string) {
		// Must not panic; errors are expected and acceptable.
		expr, err := ParseExpression(text)
		if err != nil {
			return
		}
		next, err := expr.WithField(FieldSecond, value)
		if err != nil {
			return
		}
		if _, err := ParseExpression(next.String()); err != nil {
			t.Errorf("spliced expression %q does not re-parse: %v", next.String(), err)
		}
	})
}
