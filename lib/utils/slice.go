package utils

import (
	"golang.org/x/exp/constraints"
)

func Map[T any, R any](a []T, mapper func(T) R) []R {
	res := make([]R, len(a))
	for i, v := range a {
		res[i] = mapper(v)
	}
	return res
}

func Filter[T any](a []T, keep func(T) bool) []T {
	res := make([]T, 0, len(a))
	for _, v := range a {
		if keep(v) {
			res = append(res, v)
		}
	}
	return res
}

func Sum[T constraints.Integer | constraints.Float](a []T) T {
	var total T
	for _, v := range a {
		total += v
	}
	return total
}

// Set builds a membership map from a slice.
func Set[T comparable](a []T) map[T]struct{} {
	res := make(map[T]struct{}, len(a))
	for _, v := range a {
		res[v] = struct{}{}
	}
	return res
}
