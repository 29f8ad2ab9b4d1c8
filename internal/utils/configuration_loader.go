package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	pathutils "github.com/temirov/herd/internal/utils/path"
)

const (
	configurationKeySeparatorConstant               = "."
	configurationWordSeparatorConstant              = "-"
	environmentSeparatorConstant                    = "_"
	configurationReadErrorTemplateConstant          = "failed to read configuration %s: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded defaults: %w"
	listSeparatorConstant                           = ","
)

// ConfigurationSource describes where herd settings come from. SearchPaths and explicit file paths may
// start with "~"; EmbeddedDefaults is parsed as Type.
type ConfigurationSource struct {
	Name              string
	Type              string
	EnvironmentPrefix string
	SearchPaths       []string
	EmbeddedDefaults  []byte
}

// ConfigurationLoader layers defaults, embedded defaults, a configuration file and environment variables.
type ConfigurationLoader struct {
	source                 ConfigurationSource
	homeExpander           *pathutils.HomeExpander
	environmentKeyReplacer *strings.Replacer
}

// LoadedConfiguration reports which file was read and which environment variables overrode it.
type LoadedConfiguration struct {
	ConfigFileUsed       string
	EnvironmentOverrides []string
}

// NewConfigurationLoader creates a loader for the given source.
func NewConfigurationLoader(source ConfigurationSource) *ConfigurationLoader {
	return NewConfigurationLoaderWithExpander(source, pathutils.NewHomeExpander())
}

// NewConfigurationLoaderWithExpander creates a loader that resolves "~" with the provided expander.
func NewConfigurationLoaderWithExpander(source ConfigurationSource, homeExpander *pathutils.HomeExpander) *ConfigurationLoader {
	copiedSource := source
	copiedSource.SearchPaths = append([]string(nil), source.SearchPaths...)
	copiedSource.EmbeddedDefaults = append([]byte(nil), source.EmbeddedDefaults...)

	return &ConfigurationLoader{
		source:       copiedSource,
		homeExpander: homeExpander,
		environmentKeyReplacer: strings.NewReplacer(
			configurationKeySeparatorConstant, environmentSeparatorConstant,
			configurationWordSeparatorConstant, environmentSeparatorConstant,
		),
	}
}

// LoadConfiguration populates targetConfiguration from, in increasing priority, defaultValues, the
// embedded defaults, the first configuration file found in the search paths (or configurationFilePath
// when set) and prefixed environment variables. Durations such as "2s" and comma separated lists decode
// from strings.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if mergeError := loader.mergeEmbeddedDefaults(viperInstance); mergeError != nil {
		return LoadedConfiguration{}, mergeError
	}

	if readError := loader.mergeConfigurationFile(viperInstance, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, readError
	}

	viperInstance.SetEnvPrefix(loader.source.EnvironmentPrefix)
	viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	viperInstance.AutomaticEnv()

	unmarshalError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(configurationDecodeHook()))
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{
		ConfigFileUsed:       viperInstance.ConfigFileUsed(),
		EnvironmentOverrides: loader.environmentOverrides(viperInstance.AllKeys()),
	}, nil
}

// EnvironmentVariable names the variable that overrides a dotted configuration key.
func (loader *ConfigurationLoader) EnvironmentVariable(configurationKey string) string {
	variableName := strings.ToUpper(loader.environmentKeyReplacer.Replace(configurationKey))
	if len(loader.source.EnvironmentPrefix) == 0 {
		return variableName
	}
	return strings.ToUpper(loader.source.EnvironmentPrefix) + environmentSeparatorConstant + variableName
}

func (loader *ConfigurationLoader) mergeEmbeddedDefaults(viperInstance *viper.Viper) error {
	if len(loader.source.EmbeddedDefaults) == 0 {
		return nil
	}

	viperInstance.SetConfigType(loader.source.Type)
	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.source.EmbeddedDefaults)); mergeError != nil {
		return fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}
	return nil
}

// mergeConfigurationFile reads an explicit file, which must exist, or the first match in the search
// paths, which may be absent.
func (loader *ConfigurationLoader) mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) error {
	viperInstance.SetConfigName(loader.source.Name)
	viperInstance.SetConfigType(loader.source.Type)

	trimmedFilePath := strings.TrimSpace(configurationFilePath)
	if len(trimmedFilePath) > 0 {
		expandedFilePath := loader.homeExpander.Expand(trimmedFilePath)
		viperInstance.SetConfigFile(expandedFilePath)
		if readError := viperInstance.MergeInConfig(); readError != nil {
			return fmt.Errorf(configurationReadErrorTemplateConstant, expandedFilePath, readError)
		}
		return nil
	}

	for _, searchPath := range loader.source.SearchPaths {
		viperInstance.AddConfigPath(loader.homeExpander.Expand(searchPath))
	}

	readError := viperInstance.MergeInConfig()
	if readError == nil {
		return nil
	}

	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(readError, &notFoundError) {
		return nil
	}
	return fmt.Errorf(configurationReadErrorTemplateConstant, viperInstance.ConfigFileUsed(), readError)
}

func (loader *ConfigurationLoader) environmentOverrides(configurationKeys []string) []string {
	overrides := []string{}
	for _, configurationKey := range configurationKeys {
		variableName := loader.EnvironmentVariable(configurationKey)
		if _, present := os.LookupEnv(variableName); present {
			overrides = append(overrides, variableName)
		}
	}
	sort.Strings(overrides)
	return overrides
}

func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listSeparatorConstant),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}
