package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

/**
 * @brief The vertex and fragment modules of the sprite program.
 */
type VulkanShader struct {
	VertexModule   vk.ShaderModule
	FragmentModule vk.ShaderModule
}

// NewShader builds both modules from SPIR-V words. Empty bytecode means the file was not
// found and is reported as core.ErrShaderMissing.
func NewShader(context *VulkanContext, vertexCode, fragmentCode []uint32) (*VulkanShader, error) {
	if len(vertexCode) == 0 {
		return nil, errors.Wrap(core.ErrShaderMissing, "vertex stage")
	}
	if len(fragmentCode) == 0 {
		return nil, errors.Wrap(core.ErrShaderMissing, "fragment stage")
	}

	shader := &VulkanShader{}
	var err error
	if shader.VertexModule, err = createShaderModule(context, vertexCode); err != nil {
		return nil, err
	}
	if shader.FragmentModule, err = createShaderModule(context, fragmentCode); err != nil {
		shader.Destroy(context)
		return nil, err
	}
	return shader, nil
}

func createShaderModule(context *VulkanContext, code []uint32) (vk.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if res := context.Driver.CreateShaderModule(context.logicalDevice(), &createInfo, context.Allocator, &module); res != vk.Success {
		return nil, resultError(res, "failed to create shader module")
	}
	return module, nil
}

// Stages describes both modules for pipeline creation, entry point main.
func (s *VulkanShader) Stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: s.VertexModule,
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: s.FragmentModule,
			PName:  VulkanSafeString("main"),
		},
	}
}

func (s *VulkanShader) Destroy(context *VulkanContext) {
	if s.VertexModule != nil {
		context.Driver.DestroyShaderModule(context.logicalDevice(), s.VertexModule, context.Allocator)
		s.VertexModule = nil
	}
	if s.FragmentModule != nil {
		context.Driver.DestroyShaderModule(context.logicalDevice(), s.FragmentModule, context.Allocator)
		s.FragmentModule = nil
	}
}
