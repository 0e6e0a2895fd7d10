package models

import "testing"

func TestValidateVaultConfig(t *testing.T) {
	tests := []struct {
		name          string
		thresholdDays int
		guardians     []string
		required      int
		wantErr       bool
	}{
		{"defaults", 30, nil, 0, false},
		{"minimum threshold", 1, nil, 0, false},
		{"zero threshold", 0, nil, 0, true},
		{"negative threshold", -5, nil, 0, true},
		{"threshold too large", MaxThresholdDays + 1, nil, 0, true},
		{"guardians with quorum", 30, []string{"0:aa", "0:bb", "0:cc"}, 2, false},
		{"quorum equals guardian count", 30, []string{"0:aa", "0:bb"}, 2, false},
		{"quorum above guardian count", 30, []string{"0:aa", "0:bb"}, 3, true},
		{"guardians require quorum of at least one", 30, []string{"0:aa"}, 0, true},
		{"approvals without guardians", 30, nil, 1, true},
		{"duplicate guardian", 30, []string{"0:aa", "0:aa"}, 1, true},
		{"blank guardian", 30, []string{"0:aa", " "}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVaultConfig(tt.thresholdDays, tt.guardians, tt.required)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVaultConfig() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHeirEmail(t *testing.T) {
	for _, ok := range []string{"heir@example.com", "a@b.co"} {
		if err := ValidateHeirEmail(ok); err != nil {
			t.Errorf("ValidateHeirEmail(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "no-at-sign", "@example.com", "heir@", "he ir@example.com"} {
		if err := ValidateHeirEmail(bad); err == nil {
			t.Errorf("ValidateHeirEmail(%q) = nil, want error", bad)
		}
	}
}

func TestVaultGuardianHelpers(t *testing.T) {
	v := &Vault{GuardianAddresses: []string{"0:aa", "0:bb"}}
	if !v.HasGuardians() {
		t.Error("HasGuardians() = false, want true")
	}
	if !v.IsGuardian("0:aa") {
		t.Error(`IsGuardian("0:aa") = false, want true`)
	}
	if v.IsGuardian("0:cc") {
		t.Error(`IsGuardian("0:cc") = true, want false`)
	}

	empty := &Vault{}
	if empty.HasGuardians() {
		t.Error("empty vault HasGuardians() = true, want false")
	}
}
