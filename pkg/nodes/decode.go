package nodes

import (
	"encoding/json"
	"fmt"
)

// Decode parses a JSON-encoded AST produced by an out-of-module parser into
// a Program. The wire format mirrors the struct definitions in nodes.go: an
// object carries a "kind" discriminator alongside its fields, and any
// field holding a child Node (or []Node) is itself one of these envelopes.
//
// This exists so the ambient file-system loader (pkg/templating) has a way
// to load a named template's pre-parsed tree from disk without this module
// reaching into lexing/parsing, which is explicitly out of scope.
func Decode(data []byte) (*Program, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	prog, ok := n.(*Program)
	if !ok {
		return nil, fmt.Errorf("nodes: root node must be %q, got %q", KindProgram, n.Kind())
	}
	return prog, nil
}

type head struct {
	Kind Kind `json:"kind"`
}

func decodeNode(raw json.RawMessage) (Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var h head
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("nodes: decoding node envelope: %w", err)
	}
	switch h.Kind {
	case KindProgram:
		var w struct {
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		body, err := decodeNodes(w.Body)
		return &Program{Body: body}, err
	case KindOutput:
		var w struct {
			Expression json.RawMessage `json:"expression"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		expr, err := decodeNode(w.Expression)
		return &Output{Expression: expr}, err
	case KindIf:
		var w struct {
			Test      json.RawMessage   `json:"test"`
			Body      []json.RawMessage `json:"body"`
			Alternate []json.RawMessage `json:"alternate"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		test, err := decodeNode(w.Test)
		if err != nil {
			return nil, err
		}
		body, err := decodeNodes(w.Body)
		if err != nil {
			return nil, err
		}
		alt, err := decodeNodes(w.Alternate)
		return &If{Test: test, Body: body, Alternate: alt}, err
	case KindFor:
		var w struct {
			Target      json.RawMessage   `json:"target"`
			Iterable    json.RawMessage   `json:"iterable"`
			Body        []json.RawMessage `json:"body"`
			DefaultBody []json.RawMessage `json:"default_body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		target, err := decodeNode(w.Target)
		if err != nil {
			return nil, err
		}
		iterable, err := decodeNode(w.Iterable)
		if err != nil {
			return nil, err
		}
		body, err := decodeNodes(w.Body)
		if err != nil {
			return nil, err
		}
		def, err := decodeNodes(w.DefaultBody)
		return &For{Target: target, Iterable: iterable, Body: body, DefaultBody: def}, err
	case KindSetStatement:
		var w struct {
			Target json.RawMessage   `json:"target"`
			Value  json.RawMessage   `json:"value"`
			Body   []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		target, err := decodeNode(w.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeNode(w.Value)
		if err != nil {
			return nil, err
		}
		body, err := decodeNodes(w.Body)
		return &SetStatement{Target: target, Value: value, Body: body}, err
	case KindMacro:
		var w struct {
			Name   string `json:"name"`
			Params []struct {
				Name    string          `json:"name"`
				Default json.RawMessage `json:"default"`
			} `json:"params"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		params := make([]MacroParam, 0, len(w.Params))
		for _, p := range w.Params {
			def, err := decodeNode(p.Default)
			if err != nil {
				return nil, err
			}
			params = append(params, MacroParam{Name: p.Name, Default: def})
		}
		body, err := decodeNodes(w.Body)
		return &Macro{Name: w.Name, Params: params, Body: body}, err
	case KindCallStatement:
		var w struct {
			Call json.RawMessage   `json:"call"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		call, err := decodeNode(w.Call)
		if err != nil {
			return nil, err
		}
		callExpr, ok := call.(*CallExpression)
		if !ok {
			return nil, fmt.Errorf("nodes: CallStatement.call must be %q", KindCallExpression)
		}
		body, err := decodeNodes(w.Body)
		return &CallStatement{Call: callExpr, Body: body}, err
	case KindFilterStatement:
		var w struct {
			Filter json.RawMessage   `json:"filter"`
			Body   []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		filter, err := decodeFilterCall(w.Filter)
		if err != nil {
			return nil, err
		}
		body, err := decodeNodes(w.Body)
		return &FilterStatement{Filter: filter, Body: body}, err
	case KindBreak:
		return &Break{}, nil
	case KindContinue:
		return &Continue{}, nil
	case KindComment:
		var w struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &Comment{Text: w.Text}, nil
	case KindIntegerLiteral:
		var w struct {
			Value int64 `json:"value"`
		}
		err := json.Unmarshal(raw, &w)
		return &IntegerLiteral{Value: w.Value}, err
	case KindFloatLiteral:
		var w struct {
			Value float64 `json:"value"`
		}
		err := json.Unmarshal(raw, &w)
		return &FloatLiteral{Value: w.Value}, err
	case KindStringLiteral:
		var w struct {
			Value string `json:"value"`
		}
		err := json.Unmarshal(raw, &w)
		return &StringLiteral{Value: w.Value}, err
	case KindArrayLiteral:
		var w struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		items, err := decodeNodes(w.Items)
		return &ArrayLiteral{Items: items}, err
	case KindTupleLiteral:
		var w struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		items, err := decodeNodes(w.Items)
		return &TupleLiteral{Items: items}, err
	case KindObjectLiteral:
		var w struct {
			Pairs []struct {
				Key   json.RawMessage `json:"key"`
				Value json.RawMessage `json:"value"`
			} `json:"pairs"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		pairs := make([]ObjectPair, 0, len(w.Pairs))
		for _, p := range w.Pairs {
			key, err := decodeNode(p.Key)
			if err != nil {
				return nil, err
			}
			val, err := decodeNode(p.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, ObjectPair{Key: key, Value: val})
		}
		return &ObjectLiteral{Pairs: pairs}, nil
	case KindIdentifier:
		var w struct {
			Name string `json:"name"`
		}
		err := json.Unmarshal(raw, &w)
		return &Identifier{Name: w.Name}, err
	case KindMemberExpression:
		var w struct {
			Base     json.RawMessage `json:"base"`
			Property json.RawMessage `json:"property"`
			Computed bool            `json:"computed"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		base, err := decodeNode(w.Base)
		if err != nil {
			return nil, err
		}
		prop, err := decodeNode(w.Property)
		return &MemberExpression{Base: base, Property: prop, Computed: w.Computed}, err
	case KindCallExpression:
		var w struct {
			Callee json.RawMessage   `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		callee, err := decodeNode(w.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(w.Args)
		return &CallExpression{Callee: callee, Args: args}, err
	case KindBinaryExpression:
		var w struct {
			Left     json.RawMessage `json:"left"`
			Right    json.RawMessage `json:"right"`
			Operator struct {
				Value string `json:"value"`
			} `json:"operator"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		left, err := decodeNode(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(w.Right)
		return &BinaryExpression{Left: left, Right: right, Operator: Operator{Value: w.Operator.Value}}, err
	case KindUnaryExpression:
		var w struct {
			Operator string          `json:"operator"`
			Target   json.RawMessage `json:"target"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		target, err := decodeNode(w.Target)
		return &UnaryExpression{Operator: w.Operator, Target: target}, err
	case KindFilterExpression:
		var w struct {
			Expression json.RawMessage `json:"expression"`
			Filter     json.RawMessage `json:"filter"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		expr, err := decodeNode(w.Expression)
		if err != nil {
			return nil, err
		}
		filter, err := decodeFilterCall(w.Filter)
		return &FilterExpression{Expression: expr, Filter: filter}, err
	case KindTestExpression:
		var w struct {
			Expression json.RawMessage `json:"expression"`
			Test       json.RawMessage `json:"test"`
			Negate     bool            `json:"negate"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		expr, err := decodeNode(w.Expression)
		if err != nil {
			return nil, err
		}
		var tw struct {
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(w.Test, &tw); err != nil {
			return nil, err
		}
		args, err := decodeNodes(tw.Args)
		if err != nil {
			return nil, err
		}
		return &TestExpression{Expression: expr, Test: TestCall{Name: tw.Name, Args: args}, Negate: w.Negate}, nil
	case KindSelectExpression:
		var w struct {
			Expression json.RawMessage `json:"expression"`
			Test       json.RawMessage `json:"test"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		expr, err := decodeNode(w.Expression)
		if err != nil {
			return nil, err
		}
		test, err := decodeNode(w.Test)
		return &SelectExpression{Expression: expr, Test: test}, err
	case KindTernary:
		var w struct {
			Condition json.RawMessage `json:"condition"`
			Then      json.RawMessage `json:"then"`
			Else      json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		cond, err := decodeNode(w.Condition)
		if err != nil {
			return nil, err
		}
		then, err := decodeNode(w.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeNode(w.Else)
		return &Ternary{Condition: cond, Then: then, Else: els}, err
	case KindSliceExpression:
		var w struct {
			Base json.RawMessage `json:"base"`
			From json.RawMessage `json:"from"`
			To   json.RawMessage `json:"to"`
			Step json.RawMessage `json:"step"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		base, err := decodeNode(w.Base)
		if err != nil {
			return nil, err
		}
		from, err := decodeNode(w.From)
		if err != nil {
			return nil, err
		}
		to, err := decodeNode(w.To)
		if err != nil {
			return nil, err
		}
		step, err := decodeNode(w.Step)
		return &SliceExpression{Base: base, From: from, To: to, Step: step}, err
	case KindKeywordArgumentExpression:
		var w struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		val, err := decodeNode(w.Value)
		return &KeywordArgumentExpression{Name: w.Name, Value: val}, err
	case KindSpreadExpression:
		var w struct {
			Expression json.RawMessage `json:"expression"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		expr, err := decodeNode(w.Expression)
		return &SpreadExpression{Expression: expr}, err
	default:
		return nil, fmt.Errorf("nodes: unknown node kind %q", h.Kind)
	}
}

func decodeNodes(raws []json.RawMessage) ([]Node, error) {
	if raws == nil {
		return nil, nil
	}
	out := make([]Node, 0, len(raws))
	for _, r := range raws {
		n, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeFilterCall(raw json.RawMessage) (FilterCall, error) {
	var w struct {
		Name string            `json:"name"`
		Args []json.RawMessage `json:"args"`
	}
	if len(raw) == 0 {
		return FilterCall{}, nil
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return FilterCall{}, err
	}
	args, err := decodeNodes(w.Args)
	return FilterCall{Name: w.Name, Args: args}, err
}
