// Package round implements the Byzantine quorum arithmetic (C3) and the
// round abstraction family (C4): voting, same-value collection,
// different-value collection, keeper-only, and collect-until-all rounds.
package round

import "fmt"

// Threshold returns the Byzantine quorum size for n participants:
// floor(2n/3) + 1. Go's integer division already truncates toward zero
// for non-negative operands, which is exactly floor for n >= 0.
func Threshold(n int) int {
	return 2*n/3 + 1
}

// Tally counts how many times each value appears in votes.
func Tally(votes map[string]string) map[string]int {
	tally := make(map[string]int, len(votes))
	for _, v := range votes {
		tally[v]++
	}
	return tally
}

// LargestBucket returns the size of the largest value bucket in tally,
// 0 if tally is empty.
func LargestBucket(tally map[string]int) int {
	largest := 0
	for _, count := range tally {
		if count > largest {
			largest = count
		}
	}
	return largest
}

// ThresholdReached reports whether some value in votes has reached
// Threshold(n) occurrences.
func ThresholdReached(votes map[string]string, n int) bool {
	t := Threshold(n)
	for _, count := range Tally(votes) {
		if count >= t {
			return true
		}
	}
	return false
}

// MajorityPossible reports whether, given the votes already cast and n
// total participants, some value can still reach Threshold(n): the votes
// not yet cast plus the current largest bucket must be able to cover the
// threshold.
func MajorityPossible(votes map[string]string, n int) bool {
	remaining := n - len(votes)
	largest := LargestBucket(Tally(votes))
	return remaining+largest >= Threshold(n)
}

// CheckMajorityPossibleWithNewVoter computes the hypothetical tally after
// newVoter casts newVote and evaluates MajorityPossible against it. It
// panics if newVoter is already present in votes; the caller is expected
// to only call this once per sender, before recording the vote.
//
// Returns err (wrapped with context) if majority is no longer reachable.
// This is the fast-fail check: it lets a round abort as soon as no value
// can still reach quorum, without waiting for every participant to vote.
func CheckMajorityPossibleWithNewVoter(votes map[string]string, newVoter, newVote string, n int, err error) error {
	if _, exists := votes[newVoter]; exists {
		panic(fmt.Sprintf("round: CheckMajorityPossibleWithNewVoter: voter %q already voted", newVoter))
	}
	hypothetical := make(map[string]string, len(votes)+1)
	for k, v := range votes {
		hypothetical[k] = v
	}
	hypothetical[newVoter] = newVote

	if !MajorityPossible(hypothetical, n) {
		return fmt.Errorf("%w: majority no longer reachable with %d participants", err, n)
	}
	return nil
}
