package members

import (
	"cmp"
	"slices"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

func Project(history core.DomainEvents, _ Query, maxSequence uint, base ...Members) Members {
	members := make(map[core.MemberIDString]Member)

	if len(base) > 0 {
		for _, member := range base[0].Members {
			members[member.MemberID] = member
		}
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.MemberRegistered:
			members[e.MemberID] = Member{
				MemberID:     e.MemberID,
				FullName:     e.FullName,
				Contact:      e.Contact,
				Email:        e.Email,
				Role:         e.Role,
				MembershipID: e.MembershipID,
				RegisteredAt: e.OccurredAt,
			}
		case core.MemberDeleted:
			delete(members, e.MemberID)
		}
	}

	memberList := make([]Member, 0, len(members))
	for _, member := range members {
		memberList = append(memberList, member)
	}

	slices.SortFunc(memberList, func(a, b Member) int {
		return cmp.Compare(a.MemberID, b.MemberID)
	})

	return Members{
		Members:        memberList,
		Count:          len(memberList),
		SequenceNumber: maxSequence,
	}
}

func BuildEventFilter(_ Query) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.MemberRegisteredEventType,
			core.MemberDeletedEventType,
		).
		Finalize()
}
