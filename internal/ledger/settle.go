package ledger

import (
	"math"
	"sort"
)

// ReserveID stands for the mess reserve in a settlement plan.
const ReserveID = "reserve"

// Transfer is one payment that moves a month toward zero balances.
type Transfer struct {
	FromUserID string  `json:"fromUserId"` // Who pays
	FromName   string  `json:"fromName"`
	ToUserID   string  `json:"toUserId"` // Who receives
	ToName     string  `json:"toName"`
	Amount     float64 `json:"amount"`
}

type party struct {
	id, name string
	cents    int64
}

// Settle plans the payments that close a month.
//
// Members with a negative balance pay, members with a positive balance are paid. The
// reserve takes part with the opposite of the members' net balance, so leftover cash
// is refunded from it and any shortfall is paid into it. Debtors and creditors are
// matched greedily, largest first. Amounts are settled in whole cents.
func Settle(summaries []MemberSummary) []Transfer {
	var debtors, creditors []party
	var net int64
	for _, s := range summaries {
		c := toCents(s.Balance)
		net += c
		switch {
		case c < 0:
			debtors = append(debtors, party{id: s.UserID, name: s.Name, cents: -c})
		case c > 0:
			creditors = append(creditors, party{id: s.UserID, name: s.Name, cents: c})
		}
	}
	reserve := party{id: ReserveID, name: "Mess reserve"}
	switch {
	case net > 0:
		reserve.cents = net
		debtors = append(debtors, reserve)
	case net < 0:
		reserve.cents = -net
		creditors = append(creditors, reserve)
	}

	byAmount := func(ps []party) {
		sort.Slice(ps, func(i, j int) bool {
			if ps[i].cents != ps[j].cents {
				return ps[i].cents > ps[j].cents
			}
			return ps[i].id < ps[j].id
		})
	}
	byAmount(debtors)
	byAmount(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := min(d.cents, c.cents)
		transfers = append(transfers, Transfer{
			FromUserID: d.id,
			FromName:   d.name,
			ToUserID:   c.id,
			ToName:     c.name,
			Amount:     float64(amount) / 100,
		})

		d.cents -= amount
		c.cents -= amount
		if d.cents == 0 {
			i++
		}
		if c.cents == 0 {
			j++
		}
	}
	return transfers
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
