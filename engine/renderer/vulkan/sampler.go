package vulkan

import (
	vk "github.com/goki/vulkan"
)

// NewSampler creates the linear, repeating sampler shared by every texture.
func NewSampler(context *VulkanContext) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}

	var sampler vk.Sampler
	if res := context.Driver.CreateSampler(context.logicalDevice(), &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		return nil, resultError(res, "failed to create texture sampler")
	}
	return sampler, nil
}

func DestroySampler(context *VulkanContext, sampler vk.Sampler) {
	if sampler != nil {
		context.Driver.DestroySampler(context.logicalDevice(), sampler, context.Allocator)
	}
}
