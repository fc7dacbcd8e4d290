package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schemematch/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		wantErr bool
	}{
		{name: "nil profile", profile: nil, wantErr: true},
		{name: "empty profile is valid", profile: &Profile{}},
		{name: "negative age", profile: &Profile{Age: ptr(-1)}, wantErr: true},
		{name: "zero age", profile: &Profile{Age: ptr(0)}},
		{name: "negative income", profile: &Profile{AnnualIncome: ptr(-10.0)}, wantErr: true},
		{name: "short postal code", profile: &Profile{Location: &Location{PostalCode: ptr("5600")}}, wantErr: true},
		{name: "non-numeric postal code", profile: &Profile{Location: &Location{PostalCode: ptr("56O001")}}, wantErr: true},
		{name: "valid postal code", profile: &Profile{Location: &Location{PostalCode: ptr("560001")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProfileLookup(t *testing.T) {
	p := &Profile{
		Name:         ptr("Lakshmi"),
		Age:          ptr(42),
		AnnualIncome: ptr(120000.5),
		Location: &Location{
			State:    ptr("Karnataka"),
			District: ptr("Mysuru"),
		},
		Documents: map[string]bool{"aadhaar": true, "land_record": false},
	}

	t.Run("typed values", func(t *testing.T) {
		assert.Equal(t, ValueString, p.Lookup(AttrName).Kind())
		assert.Equal(t, "Lakshmi", p.Lookup(AttrName).Str())
		assert.Equal(t, 42.0, p.Lookup(AttrAge).Num())
		assert.Equal(t, 120000.5, p.Lookup(AttrAnnualIncome).Num())
		assert.Equal(t, "Mysuru", p.Lookup(AttrDistrict).Str())
	})

	t.Run("absent attributes are absent, not zero", func(t *testing.T) {
		assert.True(t, p.Lookup(AttrOccupation).IsAbsent())
		assert.True(t, p.Lookup(AttrFamilySize).IsAbsent())
		assert.True(t, p.Lookup(AttrPostalCode).IsAbsent())
		assert.True(t, p.Lookup("documents.ration_card").IsAbsent())
		assert.True(t, p.Lookup("not_an_attribute").IsAbsent())
	})

	t.Run("document flags are tri-state", func(t *testing.T) {
		assert.True(t, p.Lookup("documents.aadhaar").Bool())
		flag := p.Lookup("documents.land_record")
		assert.Equal(t, ValueBool, flag.Kind())
		assert.False(t, flag.Bool())
	})

	t.Run("administrative path stops at first gap", func(t *testing.T) {
		gappy := &Profile{Location: &Location{State: ptr("Kerala"), SubDistrict: ptr("Aluva")}}
		assert.Equal(t, []string{"Kerala"}, gappy.Lookup(AttrLocation).Path())
		assert.Equal(t, []string{"Karnataka", "Mysuru"}, p.Lookup(AttrLocation).Path())
		assert.True(t, (&Profile{}).Lookup(AttrLocation).IsAbsent())
	})

	t.Run("nil profile", func(t *testing.T) {
		var nilProfile *Profile
		assert.True(t, nilProfile.Lookup(AttrAge).IsAbsent())
	})
}

func TestAttributeKind(t *testing.T) {
	kind, ok := AttributeKind(AttrAge)
	assert.True(t, ok)
	assert.Equal(t, ValueNumber, kind)

	kind, ok = AttributeKind("documents.bank_passbook")
	assert.True(t, ok)
	assert.Equal(t, ValueBool, kind)

	_, ok = AttributeKind("documents.")
	assert.False(t, ok)
	_, ok = AttributeKind("caste")
	assert.False(t, ok)
}

func TestProgramIsOpen(t *testing.T) {
	asOf := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	past := asOf.Add(-time.Hour)
	future := asOf.Add(48 * time.Hour)

	assert.True(t, (&Program{}).IsOpen(asOf))
	assert.False(t, (&Program{Deadline: &past}).IsOpen(asOf))
	assert.True(t, (&Program{Deadline: &asOf}).IsOpen(asOf))

	days, ok := (&Program{Deadline: &future}).DaysUntilDeadline(asOf)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, days, 1e-9)

	_, ok = (&Program{}).DaysUntilDeadline(asOf)
	assert.False(t, ok)
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "35", NumberValue(35).Text())
	assert.Equal(t, "1.5", NumberValue(1.5).Text())
	assert.Equal(t, "true", BoolValue(true).Text())
	assert.Equal(t, "Karnataka, Mysuru", PathValue([]string{"Karnataka", "Mysuru"}).Text())
	assert.Equal(t, "", Absent().Text())
	assert.True(t, PathValue(nil).IsAbsent())
}
