package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/simpletrade/internal/model"
	"github.com/udisondev/simpletrade/internal/policy"
)

// Sentinels disabling a limit.
const (
	NoMaxDistance = -1
	NoMoneyLimit  = -1
)

// MaxTitleLength: максимальная длина заголовка окна торговли.
const MaxTitleLength = 32

const playerPlaceholder = "@p"

// Trade holds the trade rules (reloadable at runtime).
type Trade struct {
	Global       GlobalConfig       `yaml:"global"`
	Inventory    InventoryConfig    `yaml:"inventory"`
	Blocks       BlocksConfig       `yaml:"blocks"`
	ItemControl  ItemControlConfig  `yaml:"item_control"`
	WorldControl WorldControlConfig `yaml:"world_control"`
	Localization LocalizationConfig `yaml:"localization"`
}

// GlobalConfig: общие правила торговли.
type GlobalConfig struct {
	MaxDistance     int  `yaml:"max_distance"`      // blocks; -1 disables
	Timeout         int  `yaml:"timeout"`           // seconds a request stays open
	CreativeTrading bool `yaml:"creative_trading"`  // allow trading in creative mode
	UseXPTrading    bool `yaml:"use_xp_trading"`    // experience staging buttons
	UseMoneyTrading bool `yaml:"use_money_trading"` // currency staging buttons
	UseShiftTrading bool `yaml:"use_shift_trading"` // sneak-interact starts a trade
	MaxMoneyTrading int  `yaml:"max_money_trading"` // minor units per session; -1 disables
	AbortOnDecline  bool `yaml:"abort_on_decline"`  // decline button cancels the whole trade
}

// InventoryConfig: вид окна торговли.
type InventoryConfig struct {
	Name        string `yaml:"name"` // "@p" is replaced with the partner name
	MoneyValue1 int    `yaml:"money_value_1"`
	MoneyValue2 int    `yaml:"money_value_2"`
	MoneyValue3 int    `yaml:"money_value_3"`
	ExpValue1   int    `yaml:"exp_value_1"`
	ExpValue2   int    `yaml:"exp_value_2"`
	ExpValue3   int    `yaml:"exp_value_3"`
}

// BlocksConfig: item signatures used for control icons.
type BlocksConfig struct {
	Accept         string `yaml:"accept"`
	Decline        string `yaml:"decline"`
	Separator      string `yaml:"separator"`
	MoneyStatus    string `yaml:"money_status"`
	MoneyAddRemove string `yaml:"money_add_remove"`
	XPStatus       string `yaml:"xp_status"`
	XPAddRemove    string `yaml:"xp_add_remove"`
}

// ItemControlConfig: какие предметы можно передавать.
type ItemControlConfig struct {
	Mode     string   `yaml:"control_mode"`
	ItemList []string `yaml:"item_list"` // material[:data]
	ItemLore []string `yaml:"item_lore"`
}

// WorldControlConfig: в каких мирах разрешена торговля.
type WorldControlConfig struct {
	Mode      string   `yaml:"control_mode"`
	WorldList []string `yaml:"world_list"`
}

// LocalizationConfig selects the message locale.
type LocalizationConfig struct {
	Locale string `yaml:"locale"`
}

// DefaultTrade returns Trade config with the stock rules.
func DefaultTrade() Trade {
	return Trade{
		Global: GlobalConfig{
			MaxDistance:     15,
			Timeout:         60,
			CreativeTrading: true,
			UseXPTrading:    true,
			UseMoneyTrading: true,
			UseShiftTrading: true,
			MaxMoneyTrading: NoMoneyLimit,
			AbortOnDecline:  false,
		},
		Inventory: InventoryConfig{
			Name:        "SimpleTrading - @p",
			MoneyValue1: 50,
			MoneyValue2: 100,
			MoneyValue3: 500,
			ExpValue1:   5,
			ExpValue2:   50,
			ExpValue3:   100,
		},
		Blocks: BlocksConfig{
			Accept:         "ink_sack:10",
			Decline:        "ink_sack:1",
			Separator:      "barrier",
			MoneyStatus:    "gold_nugget",
			MoneyAddRemove: "gold_nugget",
			XPStatus:       "exp_bottle",
			XPAddRemove:    "exp_bottle",
		},
		ItemControl: ItemControlConfig{
			Mode: "BLACKLIST",
		},
		WorldControl: WorldControlConfig{
			Mode: "BLACKLIST",
		},
		Localization: LocalizationConfig{
			Locale: "en",
		},
	}
}

// TimeoutDuration returns the request timeout as a duration.
func (t Trade) TimeoutDuration() time.Duration {
	return time.Duration(t.Global.Timeout) * time.Second
}

// MoneyValues returns the three currency denominations.
func (t Trade) MoneyValues() [3]int64 {
	return [3]int64{
		int64(t.Inventory.MoneyValue1),
		int64(t.Inventory.MoneyValue2),
		int64(t.Inventory.MoneyValue3),
	}
}

// ExpValues returns the three experience denominations.
func (t Trade) ExpValues() [3]int {
	return [3]int{t.Inventory.ExpValue1, t.Inventory.ExpValue2, t.Inventory.ExpValue3}
}

// InventoryTitle renders the trade window title for a partner, truncated to MaxTitleLength.
func (t Trade) InventoryTitle(partnerName string) string {
	title := strings.ReplaceAll(t.Inventory.Name, playerPlaceholder, partnerName)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	return string([]rune(title)[:MaxTitleLength])
}

// ItemPolicy builds the tradeable-item policy.
func (t Trade) ItemPolicy() (*policy.Policy[model.ItemStack], error) {
	sigs := make([]model.Signature, 0, len(t.ItemControl.ItemList))
	for _, s := range t.ItemControl.ItemList {
		sig, err := model.ParseSignature(s)
		if err != nil {
			return nil, fmt.Errorf("item_control.item_list: %w", err)
		}
		sigs = append(sigs, sig)
	}
	mode := policy.ParseMode(t.ItemControl.Mode, policy.Blacklist)
	return policy.NewItemPolicy(mode, sigs, t.ItemControl.ItemLore), nil
}

// WorldPolicy builds the trade world policy.
func (t Trade) WorldPolicy() *policy.Policy[string] {
	mode := policy.ParseMode(t.WorldControl.Mode, policy.Blacklist)
	return policy.NewNamePolicy(mode, t.WorldControl.WorldList)
}

// Icons parses the control icon signatures.
func (t Trade) Icons() (Icons, error) {
	var icons Icons
	fields := []struct {
		name string
		raw  string
		dst  *model.Signature
	}{
		{"accept", t.Blocks.Accept, &icons.Accept},
		{"decline", t.Blocks.Decline, &icons.Decline},
		{"separator", t.Blocks.Separator, &icons.Separator},
		{"money_status", t.Blocks.MoneyStatus, &icons.MoneyStatus},
		{"money_add_remove", t.Blocks.MoneyAddRemove, &icons.MoneyAddRemove},
		{"xp_status", t.Blocks.XPStatus, &icons.XPStatus},
		{"xp_add_remove", t.Blocks.XPAddRemove, &icons.XPAddRemove},
	}
	for _, f := range fields {
		sig, err := model.ParseSignature(f.raw)
		if err != nil {
			return Icons{}, fmt.Errorf("blocks.%s: %w", f.name, err)
		}
		*f.dst = sig
	}
	return icons, nil
}

// Icons: parsed control icon signatures.
type Icons struct {
	Accept         model.Signature
	Decline        model.Signature
	Separator      model.Signature
	MoneyStatus    model.Signature
	MoneyAddRemove model.Signature
	XPStatus       model.Signature
	XPAddRemove    model.Signature
}

// Validate checks the trade rules.
func (t Trade) Validate() error {
	if t.Global.Timeout <= 0 {
		return fmt.Errorf("global.timeout must be > 0, got %d", t.Global.Timeout)
	}
	if t.Global.MaxDistance < 0 && t.Global.MaxDistance != NoMaxDistance {
		return fmt.Errorf("global.max_distance must be >= 0 or %d, got %d", NoMaxDistance, t.Global.MaxDistance)
	}
	if t.Global.MaxMoneyTrading < 0 && t.Global.MaxMoneyTrading != NoMoneyLimit {
		return fmt.Errorf("global.max_money_trading must be >= 0 or %d, got %d", NoMoneyLimit, t.Global.MaxMoneyTrading)
	}
	for i, v := range t.MoneyValues() {
		if v <= 0 {
			return fmt.Errorf("inventory.money_value_%d must be > 0, got %d", i+1, v)
		}
	}
	for i, v := range t.ExpValues() {
		if v <= 0 {
			return fmt.Errorf("inventory.exp_value_%d must be > 0, got %d", i+1, v)
		}
	}
	for name, mode := range map[string]string{"item_control": t.ItemControl.Mode, "world_control": t.WorldControl.Mode} {
		if policy.ParseMode(mode, -1) == -1 {
			return fmt.Errorf("%s.control_mode: unknown mode %q", name, mode)
		}
	}
	if _, err := t.ItemPolicy(); err != nil {
		return err
	}
	if _, err := t.Icons(); err != nil {
		return err
	}
	return nil
}

// LoadTrade loads trade rules from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadTrade(path string) (Trade, error) {
	cfg := DefaultTrade()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
