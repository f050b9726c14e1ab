// Package cli provides the command-line interface for the option-chain engine.
package cli

import (
	"fmt"
	"strings"
	"time"

	"optionchain-trader/pkg/utils"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	formatted := formatIndianNumber(intPart)

	result := "₹" + formatted + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in Indian numbering system.
// Indian system: 1,00,00,000 (1 crore) vs Western: 10,000,000
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right (hundreds)
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2 (thousands, lakhs, crores)
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatOI formats open interest in compact form (K/L/Cr).
func FormatOI(oi int64) string {
	neg := oi < 0
	if neg {
		oi = -oi
	}
	var out string
	switch {
	case oi >= 10000000:
		out = fmt.Sprintf("%.2f Cr", float64(oi)/10000000)
	case oi >= 100000:
		out = fmt.Sprintf("%.2f L", float64(oi)/100000)
	case oi >= 1000:
		out = fmt.Sprintf("%.2f K", float64(oi)/1000)
	default:
		out = fmt.Sprintf("%d", oi)
	}
	if neg {
		return "-" + out
	}
	return out
}

// FormatChangeOI formats a change-in-OI value with sign.
func FormatChangeOI(chg int64) string {
	if chg > 0 {
		return "+" + FormatOI(chg)
	}
	return FormatOI(chg)
}

// FormatPrice formats a price with two decimal places.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f", price)
}

// FormatQuantity formats a quantity with Indian numbering.
func FormatQuantity(qty int64) string {
	if qty < 0 {
		return "-" + formatIndianNumber(fmt.Sprintf("%d", -qty))
	}
	return formatIndianNumber(fmt.Sprintf("%d", qty))
}

// FormatTime formats a time in IST.
func FormatTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("15:04:05")
}

// FormatDateTime formats a datetime in IST.
func FormatDateTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("02-Jan-2006 15:04:05")
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
