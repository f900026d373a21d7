package types

import (
	"fmt"

	"pasfront/internal/names"
)

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint32

const (
	FamilyNone FamilyMask = 0
	FamilyAny  FamilyMask = 1 << iota
	FamilyInteger
	FamilyReal
	FamilyBool
	FamilyChar
	FamilyString
	FamilyPointer
	FamilyVariant
	FamilySet
	FamilyEnum
	FamilyArray
	FamilyRecord
	FamilyClass
	FamilyInterface
	FamilyProcedural
	FamilyClassRef
)

const (
	FamilyNumeric = FamilyInteger | FamilyReal
	FamilyOrdinal = FamilyInteger | FamilyBool | FamilyChar | FamilyEnum
	FamilyText    = FamilyChar | FamilyString
	FamilyRef     = FamilyPointer | FamilyClass | FamilyInterface | FamilyProcedural | FamilyClassRef
)

// Operator names an operator by its class operator identifier.
type Operator uint8

const (
	OpInvalid Operator = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpIntDivide
	OpModulus
	OpLeftShift
	OpRightShift
	OpLogicalAnd
	OpLogicalOr
	OpLogicalXor
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpIn
	OpNegative
	OpPositive
	OpLogicalNot
	OpImplicit
	OpExplicit
	OpInc
	OpDec
)

var operatorNames = [...]string{
	OpInvalid:            "",
	OpAdd:                "Add",
	OpSubtract:           "Subtract",
	OpMultiply:           "Multiply",
	OpDivide:             "Divide",
	OpIntDivide:          "IntDivide",
	OpModulus:            "Modulus",
	OpLeftShift:          "LeftShift",
	OpRightShift:         "RightShift",
	OpLogicalAnd:         "LogicalAnd",
	OpLogicalOr:          "LogicalOr",
	OpLogicalXor:         "LogicalXor",
	OpBitwiseAnd:         "BitwiseAnd",
	OpBitwiseOr:          "BitwiseOr",
	OpBitwiseXor:         "BitwiseXor",
	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpLessThan:           "LessThan",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpGreaterThan:        "GreaterThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",
	OpIn:                 "In",
	OpNegative:           "Negative",
	OpPositive:           "Positive",
	OpLogicalNot:         "LogicalNot",
	OpImplicit:           "Implicit",
	OpExplicit:           "Explicit",
	OpInc:                "Inc",
	OpDec:                "Dec",
}

func (op Operator) String() string {
	if int(op) < len(operatorNames) && op != OpInvalid {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", op)
}

// OperatorByName maps a class operator identifier to its Operator.
func OperatorByName(name string) (Operator, bool) {
	for op, n := range operatorNames {
		if n != "" && names.Equal(n, name) {
			return Operator(op), true
		}
	}
	return OpInvalid, false
}

var binarySymbols = map[string]Operator{
	"+":   OpAdd,
	"-":   OpSubtract,
	"*":   OpMultiply,
	"/":   OpDivide,
	"div": OpIntDivide,
	"mod": OpModulus,
	"shl": OpLeftShift,
	"shr": OpRightShift,
	"and": OpLogicalAnd,
	"or":  OpLogicalOr,
	"xor": OpLogicalXor,
	"=":   OpEqual,
	"<>":  OpNotEqual,
	"<":   OpLessThan,
	"<=":  OpLessThanOrEqual,
	">":   OpGreaterThan,
	">=":  OpGreaterThanOrEqual,
	"in":  OpIn,
}

// BinaryOperator maps source spelling (+, div, and...) to an Operator.
func BinaryOperator(symbol string) (Operator, bool) {
	op, ok := binarySymbols[names.Key(symbol)]
	return op, ok
}

// UnaryOperator maps -, + and not.
func UnaryOperator(symbol string) (Operator, bool) {
	switch names.Key(symbol) {
	case "-":
		return OpNegative, true
	case "+":
		return OpPositive, true
	case "not":
		return OpLogicalNot, true
	}
	return OpInvalid, false
}

// userNames lists the class operator names that implement op. and, or and
// xor may be declared either as logical or as bitwise operators.
func userNames(op Operator) []string {
	switch op {
	case OpLogicalAnd:
		return []string{"LogicalAnd", "BitwiseAnd"}
	case OpLogicalOr:
		return []string{"LogicalOr", "BitwiseOr"}
	case OpLogicalXor:
		return []string{"LogicalXor", "BitwiseXor"}
	}
	return []string{op.String()}
}

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultLeft
	BinaryResultBool
	BinaryResultNumeric // Integer, Int64 or Extended by operand width
	BinaryResultReal
	BinaryResultString
	BinaryResultVariant
)

// BinaryFlags annotate special handling for binary operators.
type BinaryFlags uint8

const (
	BinaryFlagNone        BinaryFlags = 0
	BinaryFlagCommutative BinaryFlags = 1 << iota
	BinaryFlagSameFamily
)

// BinarySpec lists operand families and expected result for an operation.
type BinarySpec struct {
	Left   FamilyMask
	Right  FamilyMask
	Result BinaryResult
	Flags  BinaryFlags
}

var variantSpec = BinarySpec{Left: FamilyVariant, Right: FamilyAny, Result: BinaryResultVariant, Flags: BinaryFlagCommutative}

var compareSpecs = []BinarySpec{
	{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	{Left: FamilyText, Right: FamilyText, Result: BinaryResultBool},
	{Left: FamilyOrdinal, Right: FamilyOrdinal, Result: BinaryResultBool, Flags: BinaryFlagSameFamily},
	{Left: FamilyPointer, Right: FamilyPointer, Result: BinaryResultBool},
	variantSpec,
}

var binarySpecTable = map[Operator][]BinarySpec{
	OpAdd: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
		{Left: FamilyText, Right: FamilyText, Result: BinaryResultString},
		{Left: FamilySet, Right: FamilySet, Result: BinaryResultLeft},
		{Left: FamilyPointer, Right: FamilyInteger, Result: BinaryResultLeft, Flags: BinaryFlagCommutative},
		variantSpec,
	},
	OpSubtract: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
		{Left: FamilySet, Right: FamilySet, Result: BinaryResultLeft},
		{Left: FamilyPointer, Right: FamilyInteger, Result: BinaryResultLeft},
		variantSpec,
	},
	OpMultiply: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
		{Left: FamilySet, Right: FamilySet, Result: BinaryResultLeft},
		variantSpec,
	},
	OpDivide: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultReal},
		variantSpec,
	},
	OpIntDivide:  {{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultNumeric}, variantSpec},
	OpModulus:    {{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultNumeric}, variantSpec},
	OpLeftShift:  {{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultLeft}, variantSpec},
	OpRightShift: {{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultLeft}, variantSpec},
	OpLogicalAnd: {
		{Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
		{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultNumeric},
		variantSpec,
	},
	OpLogicalOr: {
		{Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
		{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultNumeric},
		variantSpec,
	},
	OpLogicalXor: {
		{Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
		{Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultNumeric},
		variantSpec,
	},
	OpEqual: {
		{Left: FamilyAny, Right: FamilyAny, Result: BinaryResultBool, Flags: BinaryFlagSameFamily},
	},
	OpNotEqual: {
		{Left: FamilyAny, Right: FamilyAny, Result: BinaryResultBool, Flags: BinaryFlagSameFamily},
	},
	OpLessThan:    compareSpecs,
	OpGreaterThan: compareSpecs,
	OpLessThanOrEqual: append([]BinarySpec{
		{Left: FamilySet, Right: FamilySet, Result: BinaryResultBool},
	}, compareSpecs...),
	OpGreaterThanOrEqual: append([]BinarySpec{
		{Left: FamilySet, Right: FamilySet, Result: BinaryResultBool},
	}, compareSpecs...),
	OpIn: {
		{Left: FamilyOrdinal, Right: FamilySet, Result: BinaryResultBool},
	},
}

// UnaryResult indicates how to derive the resulting type.
type UnaryResult uint8

const (
	UnaryResultUnknown UnaryResult = iota
	UnaryResultSame
	UnaryResultBool
)

// UnarySpec describes operand expectations for unary operators.
type UnarySpec struct {
	Operand FamilyMask
	Result  UnaryResult
}

var unarySpecTable = map[Operator][]UnarySpec{
	OpNegative:   {{Operand: FamilyNumeric | FamilyVariant, Result: UnaryResultSame}},
	OpPositive:   {{Operand: FamilyNumeric | FamilyVariant, Result: UnaryResultSame}},
	OpLogicalNot: {{Operand: FamilyBool, Result: UnaryResultBool}, {Operand: FamilyInteger | FamilyVariant, Result: UnaryResultSame}},
	OpInc:        {{Operand: FamilyOrdinal | FamilyPointer, Result: UnaryResultSame}},
	OpDec:        {{Operand: FamilyOrdinal | FamilyPointer, Result: UnaryResultSame}},
}

// BinarySpecs returns operand rules for the given operator.
func BinarySpecs(op Operator) []BinarySpec {
	return binarySpecTable[op]
}

// UnarySpecs returns operand rules for unary operators.
func UnarySpecs(op Operator) []UnarySpec {
	return unarySpecTable[op]
}

// Invocable is the resolved implementation of an operator: an intrinsic
// rule or a class operator declared on Owner.
type Invocable struct {
	Name      string
	Operator  Operator
	Params    []TypeID
	Result    TypeID
	Intrinsic bool
	Owner     TypeID
}

// ResolveBinary finds the operator applied to left op right. Class
// operators on either operand are preferred; among them exact parameter
// matches beat implicit conversions and a tie is ambiguous. Without an
// applicable class operator the intrinsic rules apply.
func (f *Factory) ResolveBinary(op Operator, left, right TypeID) (Invocable, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.resolved(left) || !f.resolved(right) {
		return Invocable{}, false
	}
	if inv, found, ok := f.resolveUser(op, []TypeID{left, right}); found {
		return inv, ok
	}
	return f.intrinsicBinary(op, left, right)
}

// ResolveUnary is ResolveBinary for -x, +x, not x, Inc and Dec.
func (f *Factory) ResolveUnary(op Operator, operand TypeID) (Invocable, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.resolved(operand) {
		return Invocable{}, false
	}
	if inv, found, ok := f.resolveUser(op, []TypeID{operand}); found {
		return inv, ok
	}
	fam := f.family(operand)
	for _, spec := range unarySpecTable[op] {
		if fam&spec.Operand == 0 {
			continue
		}
		result := operand
		if spec.Result == UnaryResultBool {
			result = f.mustIntrinsic("Boolean")
		}
		return Invocable{Name: op.String(), Operator: op, Params: []TypeID{operand}, Result: result, Intrinsic: true}, true
	}
	return Invocable{}, false
}

// resolveUser scores class operators declared on the operand types. found
// reports whether any candidate applied; ok is false for ambiguity.
func (f *Factory) resolveUser(op Operator, args []TypeID) (inv Invocable, found, ok bool) {
	var owners []TypeID
	for _, a := range args {
		owner := f.stripWeak(a)
		if _, isStruct := f.structInfo(owner); !isStruct {
			continue
		}
		dup := false
		for _, o := range owners {
			dup = dup || o == owner
		}
		if !dup {
			owners = append(owners, owner)
		}
	}

	best, tie := -1, false
	for _, owner := range owners {
		for _, name := range userNames(op) {
			ms, _ := f.findMember(owner, name)
			for _, m := range ms {
				if m.Kind != MemberOperator || len(m.Params) != len(args) {
					continue
				}
				score := 0
				for i, p := range m.Params {
					s := f.matchScore(args[i], p.Type)
					if s == 0 {
						score = -1
						break
					}
					score += s
				}
				switch {
				case score < 0:
				case score > best:
					best, tie = score, false
					inv = f.userInvocable(op, owner, m)
				case score == best:
					tie = true
				}
			}
		}
	}
	if best < 0 {
		return Invocable{}, false, false
	}
	if tie {
		return Invocable{}, true, false
	}
	return inv, true, true
}

func (f *Factory) userInvocable(op Operator, owner TypeID, m Member) Invocable {
	params := make([]TypeID, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type
	}
	return Invocable{Name: m.Name, Operator: op, Params: params, Result: m.Type, Owner: owner}
}

// matchScore is 2 for identical types, 1 for an implicit conversion and 0
// otherwise.
func (f *Factory) matchScore(arg, param TypeID) int {
	switch {
	case f.identical(arg, param):
		return 2
	case f.convertible(arg, param):
		return 1
	}
	return 0
}

// Convertible reports whether from converts implicitly to to.
func (f *Factory) Convertible(from, to TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.convertible(from, to)
}

func (f *Factory) convertible(from, to TypeID) bool {
	if !f.resolved(from) || !f.resolved(to) {
		return false
	}
	if f.identical(from, to) || f.identical(f.base(from), f.base(to)) {
		return true
	}
	ff, tf := f.family(from), f.family(to)
	switch {
	case ff&FamilyVariant != 0 || tf&FamilyVariant != 0:
		return true
	case ff&FamilyInteger != 0 && tf&FamilyNumeric != 0:
		return true
	case ff&FamilyReal != 0 && tf&FamilyReal != 0:
		return true
	case ff&FamilyText != 0 && tf&FamilyString != 0:
		return true
	case ff&FamilyChar != 0 && tf&FamilyChar != 0:
		return true
	case ff&FamilyBool != 0 && tf&FamilyBool != 0:
		return true
	case f.isNil(from):
		return tf&FamilyRef != 0 || tf&FamilyArray != 0 && f.kindOf(to) == KindDynamicArray
	case f.kindOf(from) == KindClass && (f.kindOf(to) == KindClass || f.kindOf(to) == KindInterface):
		return f.isA(from, to)
	case f.kindOf(from) == KindInterface && f.kindOf(to) == KindInterface:
		return f.isA(from, to)
	case ff&FamilyPointer != 0 && tf&FamilyPointer != 0:
		// untyped Pointer converts both ways
		return f.identical(f.base(from), f.mustIntrinsic("Pointer")) || f.identical(f.base(to), f.mustIntrinsic("Pointer"))
	}
	return f.hasImplicit(from, to)
}

// hasImplicit looks for class operator Implicit(from): to on either side.
func (f *Factory) hasImplicit(from, to TypeID) bool {
	for _, owner := range []TypeID{f.stripWeak(from), f.stripWeak(to)} {
		if _, ok := f.structInfo(owner); !ok {
			continue
		}
		ms, _ := f.findMember(owner, "Implicit")
		for _, m := range ms {
			if m.Kind == MemberOperator && len(m.Params) == 1 &&
				f.identical(m.Params[0].Type, from) && f.identical(m.Type, to) {
				return true
			}
		}
	}
	return false
}

func (f *Factory) intrinsicBinary(op Operator, left, right TypeID) (Invocable, bool) {
	lf, rf := f.family(left), f.family(right)
	for _, spec := range binarySpecTable[op] {
		l, r := left, right
		if !spec.matches(lf, rf) {
			if spec.Flags&BinaryFlagCommutative == 0 || !spec.matches(rf, lf) {
				continue
			}
			l, r = right, left
		}
		if spec.Flags&BinaryFlagSameFamily != 0 && !sameFamily(lf, rf) {
			continue
		}
		return Invocable{
			Name:      op.String(),
			Operator:  op,
			Params:    []TypeID{left, right},
			Result:    f.binaryResult(spec.Result, l, r),
			Intrinsic: true,
		}, true
	}
	return Invocable{}, false
}

func (s BinarySpec) matches(lf, rf FamilyMask) bool {
	return familyAccepts(s.Left, lf) && familyAccepts(s.Right, rf)
}

func familyAccepts(mask, fam FamilyMask) bool {
	if mask&FamilyAny != 0 {
		return fam != FamilyNone
	}
	return mask&fam != 0
}

// sameFamily groups numbers, text and references so that 1 = 1.0,
// 'a' = 'abc' and nil = obj compare. Records only compare through class
// operators.
func sameFamily(a, b FamilyMask) bool {
	if (a|b)&FamilyRecord != 0 {
		return false
	}
	for _, group := range []FamilyMask{FamilyNumeric, FamilyText, FamilyRef | FamilyArray} {
		if a&group != 0 && b&group != 0 {
			return true
		}
	}
	if a&FamilyVariant != 0 || b&FamilyVariant != 0 {
		return true
	}
	return a&b != 0
}

func (f *Factory) binaryResult(r BinaryResult, left, right TypeID) TypeID {
	switch r {
	case BinaryResultLeft:
		return left
	case BinaryResultBool:
		return f.mustIntrinsic("Boolean")
	case BinaryResultReal:
		return f.mustIntrinsic("Extended")
	case BinaryResultString:
		return f.mustIntrinsic("String")
	case BinaryResultVariant:
		return f.mustIntrinsic("Variant")
	case BinaryResultNumeric:
		if f.family(left)&FamilyReal != 0 || f.family(right)&FamilyReal != 0 {
			return f.mustIntrinsic("Extended")
		}
		if f.size(left, 0) == 8 || f.size(right, 0) == 8 {
			return f.mustIntrinsic("Int64")
		}
		return f.mustIntrinsic("Integer")
	}
	return f.unknown
}
