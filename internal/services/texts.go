// Package services – user-visible message texts
//
// All channel posts, staff-surface headers, thread names, and DM bodies are
// built here so the lifecycle operations stay readable and the exact wording
// is testable in one place.
package services

import (
	"fmt"
	"strings"

	"github.com/thj-dnt/bankbot/internal/domain"
)

// StaffActionsContent is the header of the staff-actions surface while a
// request still accepts actions.
const StaffActionsContent = "**Banker Actions:**"

func requestThreadTitle(requesterUsername, characterName string) string {
	return fmt.Sprintf("Item Request from %s (%s)", requesterUsername, characterName)
}

// requestPostContent renders the starter message of a request thread.
func requestPostContent(requesterID, characterName string, items []domain.RequestItem, notes string) string {
	var sb strings.Builder
	sb.WriteString("**New Guild Bank Item Request!**\n\n")
	sb.WriteString(fmt.Sprintf("**Requested by:** <@%s>\n", requesterID))
	sb.WriteString(fmt.Sprintf("**In-Game Character:** `%s`\n\n", characterName))
	sb.WriteString("**Requested Items:**\n")
	for i, it := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- " + it.Name)
	}
	if notes != "" {
		sb.WriteString("\n\n**Additional Notes:**\n" + notes)
	}
	return sb.String()
}

// staffActionsHeader renders the staff surface header for a status reached
// through staffID's action. Terminal states drop the action buttons; the
// caller decides that via UpdateStaffActions.
func staffActionsHeader(status domain.Status, staffID string) string {
	switch status {
	case domain.StatusFulfilled:
		return fmt.Sprintf("**Banker Actions: __FULLY FULFILLED__ by <@%s>!**", staffID)
	case domain.StatusDenied:
		return fmt.Sprintf("**Banker Actions: __DENIED__ by <@%s>!**", staffID)
	default:
		return fmt.Sprintf("**Banker Actions: __PARTIALLY FULFILLED__ by <@%s>!**", staffID)
	}
}

func statusUpdateFulfilled(staffID, message string) string {
	s := fmt.Sprintf("**Status Update:** Request marked **__FULLY FULFILLED__** by <@%s>. ", staffID)
	if message != "" {
		s += fmt.Sprintf("**Banker's Message:** *%q*", message)
	}
	return s
}

func statusUpdateDenied(staffID, reason string) string {
	s := fmt.Sprintf("**Status Update:** Request marked **__DENIED__** by <@%s>. ", staffID)
	if reason != "" {
		s += fmt.Sprintf("**Reason:** *%q*", reason)
	}
	return s
}

// itemBreakdown renders the delivered/pending split shared by the partial
// status update and the partial DM.
func itemBreakdown(fulfilledNow, stillPending []string) string {
	var sb strings.Builder
	sb.WriteString("**Items delivered in this update:**\n")
	if len(fulfilledNow) == 0 {
		sb.WriteString("None explicitly marked.")
	} else {
		for i, name := range fulfilledNow {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("✅ " + name)
		}
	}
	if len(stillPending) > 0 {
		sb.WriteString("\n\n**Items still pending delivery:**\n")
		for i, name := range stillPending {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("• " + name)
		}
	}
	return sb.String()
}

func statusUpdatePartial(staffID string, fulfilledNow, stillPending []string) string {
	return fmt.Sprintf("**Status Update:** Request marked **__PARTIALLY FULFILLED__** by <@%s>.\n\n", staffID) +
		itemBreakdown(fulfilledNow, stillPending)
}

func dmFulfilled(req *domain.ItemRequest, staffUsername, message string) string {
	s := fmt.Sprintf("Your Guild Bank request for **%s** has been **FULLY FULFILLED** by %s!\n", req.CharacterName, staffUsername)
	s += "Request Link: " + req.ThreadURL + "\n"
	if message != "" {
		s += fmt.Sprintf("\n**Banker's Message:** *%q*", message)
	}
	return s
}

func dmDenied(req *domain.ItemRequest, staffUsername, reason string) string {
	s := fmt.Sprintf("Your Guild Bank request for **%s** has been **DENIED** by %s!\n", req.CharacterName, staffUsername)
	s += "Request Link: " + req.ThreadURL + "\n"
	if reason != "" {
		s += fmt.Sprintf("\n**Reason for Denial:** *%q*", reason)
	}
	return s
}

func dmPartial(req *domain.ItemRequest, staffUsername string, fulfilledNow, stillPending []string) string {
	s := fmt.Sprintf("Your Guild Bank request for **%s** has been **PARTIALLY FULFILLED** by %s!\n", req.CharacterName, staffUsername)
	s += "Request Link: " + req.ThreadURL + "\n\n"
	return s + itemBreakdown(fulfilledNow, stillPending)
}

func dmAllDelivered(req *domain.ItemRequest, staffUsername string) string {
	s := fmt.Sprintf("Your Guild Bank request for **%s** has been **FULLY FULFILLED** by %s!\n", req.CharacterName, staffUsername)
	s += "Request Link: " + req.ThreadURL + "\n\n"
	return s + "All requested items have now been delivered!"
}

// threadLabel renders the terminal / partial thread rename, e.g.
// "[FULFILLED] Grumpytoon - grum (1338...)".
func threadLabel(label string, req *domain.ItemRequest) string {
	short := req.ID
	if len(short) > 4 {
		short = short[:4]
	}
	return fmt.Sprintf("[%s] %s - %s (%s...)", label, req.CharacterName, req.RequesterUsername, short)
}
