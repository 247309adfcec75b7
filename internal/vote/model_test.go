package vote

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestVoteCarriesNoVoterIdentity 验证匿名性不变量：
// 选票无论如何序列化，都不携带任何可以识别投票人的字段。
func TestVoteCarriesNoVoterIdentity(t *testing.T) {
	v := Vote{
		ID:          "vote-id",
		ElectionID:  "election-id",
		CandidateID: "candidate-id",
		CastAt:      time.Now(),
	}

	// 1. 检查JSON序列化结果
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(payload, &asMap); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	for key := range asMap {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "user") || strings.Contains(lower, "voter") {
			t.Errorf("选票JSON不应包含投票人字段: %s", key)
		}
	}

	// 2. 检查结构体字段本身，防止加了字段但用json:\"-\"藏起来
	typ := reflect.TypeOf(v)
	for i := 0; i < typ.NumField(); i++ {
		name := strings.ToLower(typ.Field(i).Name)
		if strings.Contains(name, "user") || strings.Contains(name, "voter") {
			t.Errorf("选票结构体不应包含投票人字段: %s", typ.Field(i).Name)
		}
	}
}

// TestRegistryIsDecoupledFromVote 验证登记表不引用任何具体选票
func TestRegistryIsDecoupledFromVote(t *testing.T) {
	typ := reflect.TypeOf(Registry{})
	for i := 0; i < typ.NumField(); i++ {
		name := strings.ToLower(typ.Field(i).Name)
		if strings.Contains(name, "vote") && name != "hasvoted" && name != "votedat" {
			t.Errorf("登记表不应引用具体选票: %s", typ.Field(i).Name)
		}
	}
}
