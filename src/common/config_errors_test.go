package common

import (
	"fmt"
	"testing"
)

func TestConfigErr(t *testing.T) {
	err := NewConfigErr("nodes", InvalidValue, "1")

	if !IsConfig(err, InvalidValue) {
		t.Fatalf("expected InvalidValue")
	}
	if IsConfig(err, DegenerateChain) {
		t.Fatalf("InvalidValue should not match DegenerateChain")
	}
	if !IsConfigurationError(err) {
		t.Fatalf("ConfigErr should be a configuration error")
	}
	if err.Field() != "nodes" {
		t.Fatalf("Field() should be nodes, not %s", err.Field())
	}
	if s := err.Error(); s != "nodes, '1', Invalid Value" {
		t.Fatalf("unexpected message: %s", s)
	}

	chainErr := NewConfigErr("chain", DegenerateChain, "1")
	if !IsConfigurationError(chainErr) || !IsConfig(chainErr, DegenerateChain) {
		t.Fatalf("DegenerateChain should be a configuration error")
	}

	if IsConfigurationError(fmt.Errorf("nodes")) {
		t.Fatalf("plain errors are not configuration errors")
	}
	if IsConfigurationError(NewStoreErr("Record", KeyNotFound, "1")) {
		t.Fatalf("StoreErr is not a configuration error")
	}
}

func TestStoreErr(t *testing.T) {
	err := NewStoreErr("Record", TooLate, "3")
	if !IsStore(err, TooLate) {
		t.Fatalf("expected TooLate")
	}
	if IsStore(err, KeyNotFound) {
		t.Fatalf("TooLate should not match KeyNotFound")
	}
	if s := err.Error(); s != "Record, 3, Too Late" {
		t.Fatalf("unexpected message: %s", s)
	}
}
